package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// LibraryController provides CRUD over the user's library shelf.
type LibraryController struct {
	store LibraryStore
}

func NewLibraryController(store LibraryStore) *LibraryController {
	return &LibraryController{store: store}
}

type createLibraryBookRequest struct {
	Title          string   `json:"title" binding:"required"`
	Author         string   `json:"author"`
	ISBN           string   `json:"isbn"`
	PageCount      int      `json:"page_count"`
	Genre          string   `json:"genre"`
	Synopsis       string   `json:"synopsis"`
	Tags           []string `json:"tags"`
	SeriesName     string   `json:"series_name"`
	SeriesPosition float64  `json:"series_position"`
}

type updateStatusRequest struct {
	Status       string     `json:"status" binding:"required"`
	DateFinished *time.Time `json:"date_finished"`
}

// List handles GET /api/library.
func (ctrl *LibraryController) List(c *gin.Context) {
	books, err := ctrl.store.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "listing library books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// Get handles GET /api/library/:id.
func (ctrl *LibraryController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ctrl.store.GetByID(id, GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "fetching library book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Create handles POST /api/library.
func (ctrl *LibraryController) Create(c *gin.Context) {
	var req createLibraryBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book := &entities.LibraryBook{
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
		ReadingStatus:  entities.ReadingStatusUnread,
	}
	if err := ctrl.store.Create(book); err != nil {
		if isUniqueViolation(err) {
			respondConflict(c, "a book with this ISBN is already in the library")
			return
		}
		respondInternalError(c, err, "creating library book")
		return
	}
	respondCreated(c, book)
}

// UpdateStatus handles PATCH /api/library/:id/status.
func (ctrl *LibraryController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	status := entities.ReadingStatus(req.Status)
	if !status.Valid() {
		respondBadRequest(c, "invalid status: "+req.Status)
		return
	}

	if err := ctrl.store.UpdateStatus(id, GetUserID(c), status, req.DateFinished); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "updating reading status")
		return
	}
	respondSuccess(c, "status updated")
}

// Delete handles DELETE /api/library/:id.
func (ctrl *LibraryController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.store.Delete(id, GetUserID(c)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "deleting library book")
		return
	}
	respondSuccess(c, "book deleted")
}

// isUniqueViolation reports whether an error came from a unique index.
// The sqlite driver does not translate these into gorm sentinels.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
