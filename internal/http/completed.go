package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// CompletedController provides CRUD over the user's completed books.
// Records are normally created through the import pipeline; the manual
// create endpoint covers books finished outside any import.
type CompletedController struct {
	store CompletedStore
}

func NewCompletedController(store CompletedStore) *CompletedController {
	return &CompletedController{store: store}
}

type createCompletedBookRequest struct {
	Title          string     `json:"title" binding:"required"`
	Author         string     `json:"author"`
	ISBN           string     `json:"isbn"`
	PageCount      int        `json:"page_count"`
	Genre          string     `json:"genre"`
	Synopsis       string     `json:"synopsis"`
	Tags           []string   `json:"tags"`
	SeriesName     string     `json:"series_name"`
	SeriesPosition float64    `json:"series_position"`
	DateFinished   *time.Time `json:"date_finished"`
}

// List handles GET /api/completed.
func (ctrl *CompletedController) List(c *gin.Context) {
	records, err := ctrl.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "listing completed books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": records, "count": len(records)})
}

// Get handles GET /api/completed/:id.
func (ctrl *CompletedController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	record, err := ctrl.store.GetByID(id, GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "completed book")
			return
		}
		respondInternalError(c, err, "fetching completed book")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Create handles POST /api/completed.
func (ctrl *CompletedController) Create(c *gin.Context) {
	var req createCompletedBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	record := &entities.CompletedBook{
		UserID:         GetUserID(c),
		Title:          req.Title,
		Author:         req.Author,
		ISBN:           req.ISBN,
		PageCount:      req.PageCount,
		Genre:          req.Genre,
		Synopsis:       req.Synopsis,
		Tags:           req.Tags,
		SeriesName:     req.SeriesName,
		SeriesPosition: req.SeriesPosition,
		DateFinished:   req.DateFinished,
	}
	if err := ctrl.store.Create(record); err != nil {
		if isUniqueViolation(err) {
			respondConflict(c, "a completed book with this ISBN already exists")
			return
		}
		respondInternalError(c, err, "creating completed book")
		return
	}
	respondCreated(c, record)
}

// Delete handles DELETE /api/completed/:id.
func (ctrl *CompletedController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.store.Delete(id, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "completed book")
			return
		}
		respondInternalError(c, err, "deleting completed book")
		return
	}
	respondSuccess(c, "completed book deleted")
}
