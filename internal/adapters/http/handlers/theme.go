package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

// HeaderPrefersColorScheme is the client hint carrying the browser's
// colour scheme.
const HeaderPrefersColorScheme = "Sec-CH-Prefers-Color-Scheme"

const themeCookieMaxAge = 365 * 24 * time.Hour

// ThemeHandler serves the theme preference. The preference lives in a
// cookie, so each browser keeps its own.
type ThemeHandler struct {
	fallback app.Theme
	secure   bool
}

// NewThemeHandler creates a theme handler. fallback applies when neither a
// cookie nor the colour scheme client hint says otherwise.
func NewThemeHandler(fallback app.Theme, secureCookies bool) *ThemeHandler {
	return &ThemeHandler{fallback: fallback, secure: secureCookies}
}

// Service returns the theme service for one request.
func (h *ThemeHandler) Service(c *gin.Context) *app.ThemeService {
	c.Header("Accept-CH", HeaderPrefersColorScheme)

	system := func() app.Theme {
		hint := strings.Trim(c.GetHeader(HeaderPrefersColorScheme), `" `)
		if theme, err := app.ParseTheme(hint); err == nil {
			return theme
		}

		return h.fallback
	}

	logger := logging.FromContext(c.Request.Context()).With(slog.String("component", "http.ThemeHandler"))

	return app.NewThemeService(&cookieStore{c: c, secure: h.secure}, system, logger)
}

// GetTheme handles GET /api/v1/theme.
func (h *ThemeHandler) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ThemeResponse{Theme: string(h.Service(c).Resolve(c.Request.Context()))})
}

// ToggleTheme handles POST /api/v1/theme/toggle.
func (h *ThemeHandler) ToggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ThemeResponse{Theme: string(h.Service(c).Toggle(c.Request.Context()))})
}

// SetTheme handles PUT /api/v1/theme.
func (h *ThemeHandler) SetTheme(c *gin.Context) {
	var req dto.ThemeRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	theme, err := app.ParseTheme(req.Theme)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ThemeResponse{Theme: string(h.Service(c).Set(c.Request.Context(), theme))})
}

// RegisterThemeRoutes registers the theme routes on rg.
func (h *ThemeHandler) RegisterThemeRoutes(rg *gin.RouterGroup) {
	theme := rg.Group("/theme")
	theme.GET("", h.GetTheme)
	theme.PUT("", h.SetTheme)
	theme.POST("/toggle", h.ToggleTheme)
}

// cookieStore is a ports.PreferenceStore over the request's cookies. Values
// set during the request are visible to later Gets in the same request.
type cookieStore struct {
	c      *gin.Context
	secure bool
	set    map[string]string
}

var _ ports.PreferenceStore = (*cookieStore)(nil)

func (s *cookieStore) Get(key string) (string, bool) {
	if v, ok := s.set[key]; ok {
		return v, true
	}

	v, err := s.c.Cookie(key)
	if err != nil {
		return "", false
	}

	return v, true
}

func (s *cookieStore) Set(key, value string) error {
	if s.set == nil {
		s.set = make(map[string]string)
	}
	s.set[key] = value

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, value, int(themeCookieMaxAge.Seconds()), "/", "", s.secure, false)

	return nil
}
