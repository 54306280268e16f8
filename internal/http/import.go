package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shelftrack/shelftrack/internal/importer"
)

// ImportController exposes the two-phase import workflow over HTTP.
// Parse is read-only and returns the classified result to the client;
// the client sends that result back with its review decisions on confirm.
// The server holds no review state between the two calls.
type ImportController struct {
	pipeline     *importer.Pipeline
	history      ImportHistoryStore
	maxFileBytes int64
}

func NewImportController(pipeline *importer.Pipeline, history ImportHistoryStore, maxFileBytes int64) *ImportController {
	return &ImportController{
		pipeline:     pipeline,
		history:      history,
		maxFileBytes: maxFileBytes,
	}
}

// ParseResponse wraps the classified result with per-bucket counts.
type ParseResponse struct {
	Result *importer.ParseResult `json:"result"`
	Counts map[string]int        `json:"counts"`
}

// decisionPayload is the wire form of a single review decision.
type decisionPayload struct {
	Op     string `json:"op"`
	Bucket string `json:"bucket,omitempty"`
	Index  int    `json:"index,omitempty"`
	Value  bool   `json:"value,omitempty"`
}

// confirmRequest carries the parse result back along with review decisions.
type confirmRequest struct {
	Result    importer.ParseResult `json:"result" binding:"required"`
	Decisions []decisionPayload    `json:"decisions"`
}

// Parse handles POST /api/import/parse. It accepts a multipart upload
// ("file" plus an optional "format" field, inferred from the file
// extension when absent) and returns the classified result for review.
func (ctrl *ImportController) Parse(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}

	if ctrl.maxFileBytes > 0 && fileHeader.Size > ctrl.maxFileBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	formatName := c.PostForm("format")
	if formatName == "" {
		formatName = strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	}
	format, err := importer.ParseFormat(formatName)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "opening upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondInternalError(c, err, "reading upload")
		return
	}

	result, err := ctrl.pipeline.Parse(c.Request.Context(), GetUserID(c), data, format)
	if err != nil {
		var malformed *importer.MalformedFileError
		if errors.As(err, &malformed) {
			respondBadRequest(c, malformed.Error())
			return
		}
		respondInternalError(c, err, "parsing import file")
		return
	}

	found, notFound, duplicates, libraryUpdates := result.Counts()
	c.JSON(http.StatusOK, ParseResponse{
		Result: result,
		Counts: map[string]int{
			"found":           found,
			"not_found":       notFound,
			"duplicates":      duplicates,
			"library_updates": libraryUpdates,
			"invalid":         result.Invalid,
		},
	})
}

// Confirm handles POST /api/import/confirm. The request body is the parse
// result plus the user's decisions; the controller replays the decisions
// over a fresh review session and commits the outcome.
func (ctrl *ImportController) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	session := ctrl.replayDecisions(&req)
	set := session.DecisionSet()

	result, err := ctrl.pipeline.Confirm(c.Request.Context(), GetUserID(c), &req.Result, set)
	if err != nil {
		// The commit itself succeeded; only history recording can fail here.
		respondInternalError(c, err, "recording import")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SkippedCSV handles POST /api/import/skipped.csv. It takes the same body
// as Confirm and streams back everything the review would leave out, so
// the user can fix those rows and import them again.
func (ctrl *ImportController) SkippedCSV(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	session := ctrl.replayDecisions(&req)
	items := session.SkippedItems()

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="skipped.csv"`)
	c.Status(http.StatusOK)
	if err := importer.WriteSkippedCSV(c.Writer, items); err != nil {
		// Headers are already out; nothing sensible left to send.
		_ = c.Error(err)
	}
}

// History handles GET /api/import/history.
func (ctrl *ImportController) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := ctrl.history.ListForUser(GetUserID(c), limit)
	if err != nil {
		respondInternalError(c, err, "listing import history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"imports": records})
}

// replayDecisions rebuilds the review session from a request body.
func (ctrl *ImportController) replayDecisions(req *confirmRequest) *importer.ReviewSession {
	session := importer.NewReviewSession(req.Result.Items())
	for _, d := range req.Decisions {
		session.Apply(importer.Decision{
			Op:     importer.DecisionOp(d.Op),
			Bucket: importer.Bucket(d.Bucket),
			Index:  d.Index,
			Value:  d.Value,
		})
	}
	return session
}
