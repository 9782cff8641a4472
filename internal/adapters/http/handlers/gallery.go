package handlers

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// GalleryHandler serves the collection: the arranged gallery, the visible
// list, single quotes and the group filters.
type GalleryHandler struct {
	service *app.GalleryService
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(service *app.GalleryService) *GalleryHandler {
	return &GalleryHandler{service: service}
}

// GetGallery handles GET /api/v1/gallery.
//
// @Summary Arranged gallery
// @Description Filters and sorts the collection and packs it into masonry columns
// @Tags gallery
// @Produce json
// @Param group query string false "Group filter, All by default"
// @Param sort query string false "shuffle, asc, desc or priority"
// @Param seed query int false "Shuffle seed"
// @Param columns query int false "Column count, wins over width"
// @Param width query int false "Viewport width in pixels"
// @Param gap query number false "Gap between cards"
// @Success 200 {object} dto.GalleryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/gallery [get]
func (h *GalleryHandler) GetGallery(c *gin.Context) {
	var q dto.GalleryQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.HandleError(c, err)
		return
	}

	layout, err := h.service.Layout(c.Request.Context(), q.ToRequest())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGalleryResponse(layout))
}

// ListQuotes handles GET /api/v1/quotes. The list is derived again for every
// page; a shuffled list stays stable across pages because the cursor
// carries the seed of the first page.
//
// @Summary Visible quotes
// @Tags gallery
// @Produce json
// @Param group query string false "Group filter"
// @Param sort query string false "shuffle, asc, desc or priority"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size, 1-100"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *GalleryHandler) ListQuotes(c *gin.Context) {
	var q dto.QuotesQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		dto.HandleError(c, err)
		return
	}

	offset := 0
	seed := rand.Uint64() //nolint:gosec // display order only
	if q.Seed != nil {
		seed = *q.Seed
	}

	cursor, err := q.DecodeCursor()
	switch {
	case err == nil:
		offset, seed = cursor.Offset, cursor.Seed
	case !errors.Is(err, dto.ErrNoCursor):
		dto.HandleError(c, domain.NewValidationError("cursor", err.Error()))
		return
	}

	req := q.ViewQuery.ToRequest()
	req.Seed = &seed

	view, err := h.service.View(c.Request.Context(), req)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Paginate(dto.NewQuoteResponses(view.Entries), offset, q.GetLimit(), seed))
}

// GetQuote handles GET /api/v1/quotes/:index, the detail view of one quote.
//
// @Summary One quote by collection index
// @Tags gallery
// @Produce json
// @Param index path int true "Collection index"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{index} [get]
func (h *GalleryHandler) GetQuote(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		dto.HandleError(c, domain.NewValidationErrorWithValue("index", "must be an integer", c.Param("index")))
		return
	}

	quote, err := h.service.Quote(index)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(index, quote))
}

// ListGroups handles GET /api/v1/groups.
func (h *GalleryHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.Groups()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GroupsResponse{Groups: groups})
}

// GetCollection handles GET /api/v1/collection.
func (h *GalleryHandler) GetCollection(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewCollectionResponse(h.service.Status()))
}

// ReloadCollection handles POST /api/v1/collection/reload. Concurrent
// reloads share one fetch; on failure the previous collection keeps serving.
func (h *GalleryHandler) ReloadCollection(c *gin.Context) {
	status, err := h.service.Load(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCollectionResponse(status))
}

// RegisterGalleryRoutes registers the gallery routes on rg.
func (h *GalleryHandler) RegisterGalleryRoutes(rg *gin.RouterGroup) {
	rg.GET("/gallery", h.GetGallery)
	rg.GET("/groups", h.ListGroups)

	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.GET("/:index", h.GetQuote)

	collection := rg.Group("/collection")
	collection.GET("", h.GetCollection)
	collection.POST("/reload", h.ReloadCollection)
}
