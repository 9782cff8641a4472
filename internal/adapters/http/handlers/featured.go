package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
)

// FeaturedHandler exposes the featured quote carousel.
type FeaturedHandler struct {
	rotation *app.Rotation
}

// NewFeaturedHandler creates a new featured handler.
func NewFeaturedHandler(rotation *app.Rotation) *FeaturedHandler {
	return &FeaturedHandler{rotation: rotation}
}

// GetFeatured handles GET /api/v1/featured. An empty collection has no
// featured quote and answers 204.
func (h *FeaturedHandler) GetFeatured(c *gin.Context) {
	h.respond(c, h.rotation.Current())
}

// Next handles POST /api/v1/featured/next.
func (h *FeaturedHandler) Next(c *gin.Context) {
	h.respond(c, h.rotation.Advance(gallery.Forward))
}

// Previous handles POST /api/v1/featured/previous.
func (h *FeaturedHandler) Previous(c *gin.Context) {
	h.respond(c, h.rotation.Advance(gallery.Backward))
}

func (h *FeaturedHandler) respond(c *gin.Context, f app.Featured) {
	if !f.Active {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, dto.NewFeaturedResponse(f))
}

// RegisterFeaturedRoutes registers the carousel routes on rg.
func (h *FeaturedHandler) RegisterFeaturedRoutes(rg *gin.RouterGroup) {
	featured := rg.Group("/featured")
	featured.GET("", h.GetFeatured)
	featured.POST("/next", h.Next)
	featured.POST("/previous", h.Previous)
}
