package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-gallery/internal/app"
	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/gallery"
)

//go:embed templates/*.html
var templateFS embed.FS

// notLoadedRefresh is how often, in seconds, the page reloads itself while
// the collection is still loading.
const notLoadedRefresh = 5

// PageConfig configures the HTML gallery page.
type PageConfig struct {
	Title    string
	Gallery  *app.GalleryService
	Rotation *app.Rotation
	Theme    *ThemeHandler

	// Breakpoints are the pixel widths the page stacks below; the first one
	// collapses the grid into a single column.
	Breakpoints []int
}

// PageHandler renders the gallery as a server-side HTML page. Controls are
// plain links and forms, so the page works without JavaScript.
type PageHandler struct {
	title       string
	gallery     *app.GalleryService
	rotation    *app.Rotation
	theme       *ThemeHandler
	breakpoints []int
	tmpl        *template.Template
}

// NewPageHandler parses the embedded template.
func NewPageHandler(cfg PageConfig) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/gallery.html")
	if err != nil {
		return nil, err
	}

	title := cfg.Title
	if title == "" {
		title = "Quotes"
	}

	return &PageHandler{
		title:       title,
		gallery:     cfg.Gallery,
		rotation:    cfg.Rotation,
		theme:       cfg.Theme,
		breakpoints: cfg.Breakpoints,
		tmpl:        tmpl,
	}, nil
}

type navLink struct {
	Label  string
	URL    string
	Active bool
}

type card struct {
	Quote dto.QuoteResponse
	URL   string
}

type pageData struct {
	Title    string
	Theme    string
	Gap      float64
	Narrow   int
	Refresh  int
	Self     string
	CloseURL string
	Notice   string
	Groups   []navLink
	Sorts    []navLink
	Columns  [][]card
	Featured *dto.QuoteResponse
	Selected *dto.QuoteResponse
}

// Render handles GET /.
func (h *PageHandler) Render(c *gin.Context) {
	ctx := c.Request.Context()

	data := pageData{
		Title:  h.title,
		Theme:  string(h.theme.Service(c).Resolve(ctx)),
		Gap:    gallery.DefaultGap,
		Narrow: h.narrow(),
	}

	var q dto.GalleryQuery
	if err := dto.BindQueryAndValidate(c, &q); err != nil {
		data.Notice = "Some of the gallery options in the address are not valid."
		h.write(c, http.StatusBadRequest, data)
		return
	}

	params := c.Request.URL.Query()
	if q.Seed == nil {
		seed := rand.Uint64() //nolint:gosec // display order only
		q.Seed = &seed
		params.Set("seed", strconv.FormatUint(seed, 10))
	}

	layout, err := h.gallery.Layout(ctx, q.ToRequest())
	if err != nil {
		h.renderError(c, data, err)
		return
	}

	data.Gap = layout.Gap
	data.Self = pageURL(params, nil)
	data.CloseURL = pageURL(params, map[string]string{"quote": ""})
	data.Groups = h.groupLinks(params, layout)
	data.Sorts = h.sortLinks(params, layout.Sort)
	data.Columns = cards(params, layout)

	if f := h.rotation.Current(); f.Active {
		featured := dto.NewQuoteResponse(f.Index, f.Quote)
		data.Featured = &featured
	}

	if raw := params.Get("quote"); raw != "" {
		if index, err := strconv.Atoi(raw); err == nil {
			if quote, err := h.gallery.Quote(index); err == nil {
				selected := dto.NewQuoteResponse(index, quote)
				data.Selected = &selected
			}
		}
	}

	h.write(c, http.StatusOK, data)
}

// ToggleTheme handles POST /theme from the page's theme button.
func (h *PageHandler) ToggleTheme(c *gin.Context) {
	h.theme.Service(c).Toggle(c.Request.Context())
	c.Redirect(http.StatusSeeOther, returnPath(c))
}

// NextFeatured handles POST /featured/next.
func (h *PageHandler) NextFeatured(c *gin.Context) {
	h.rotation.Advance(gallery.Forward)
	c.Redirect(http.StatusSeeOther, returnPath(c))
}

// PreviousFeatured handles POST /featured/previous.
func (h *PageHandler) PreviousFeatured(c *gin.Context) {
	h.rotation.Advance(gallery.Backward)
	c.Redirect(http.StatusSeeOther, returnPath(c))
}

// RegisterPageRoutes registers the page and its form targets on the engine.
func (h *PageHandler) RegisterPageRoutes(engine *gin.Engine) {
	engine.GET("/", h.Render)
	engine.POST("/theme", h.ToggleTheme)
	engine.POST("/featured/next", h.NextFeatured)
	engine.POST("/featured/previous", h.PreviousFeatured)
}

func (h *PageHandler) renderError(c *gin.Context, data pageData, err error) {
	status, resp := dto.NewErrorResponseFromError(err)

	switch {
	case errors.Is(err, domain.ErrNotLoaded):
		data.Notice = "Loading quotes…"
		data.Refresh = notLoadedRefresh
	case domain.IsLoadError(err):
		data.Notice = "Unable to load quotes."
	case domain.IsValidation(err):
		data.Notice = resp.Error.Message
	default:
		data.Notice = "The quotes could not be shown right now."
	}

	h.write(c, status, data)
}

func (h *PageHandler) write(c *gin.Context, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "gallery.html", data); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) narrow() int {
	if len(h.breakpoints) > 0 {
		return h.breakpoints[0] - 1
	}

	return gallery.PixelBreakpoints[0] - 1
}

func (h *PageHandler) groupLinks(params url.Values, layout app.Layout) []navLink {
	links := make([]navLink, len(layout.Groups))
	for i, g := range layout.Groups {
		links[i] = navLink{
			Label:  g,
			URL:    pageURL(params, map[string]string{"group": g, "quote": ""}),
			Active: g == layout.Group,
		}
	}

	return links
}

func (h *PageHandler) sortLinks(params url.Values, active gallery.SortMode) []navLink {
	links := make([]navLink, len(gallery.SortModes))
	for i, m := range gallery.SortModes {
		links[i] = navLink{
			Label:  m.Label(),
			URL:    pageURL(params, map[string]string{"sort": string(m), "quote": ""}),
			Active: m == active,
		}
	}

	return links
}

func cards(params url.Values, layout app.Layout) [][]card {
	columns := make([][]card, len(layout.Arrangement.Columns))
	for i, col := range layout.Arrangement.Columns {
		columns[i] = make([]card, len(col))
		for j, p := range col {
			index := layout.Entries[p.Index].Index
			columns[i][j] = card{
				Quote: dto.NewQuoteResponse(index, p.Quote),
				URL:   pageURL(params, map[string]string{"quote": strconv.Itoa(index)}),
			}
		}
	}

	return columns
}

// pageURL is "/" with params, overridden by set. An empty value in set
// removes the parameter.
func pageURL(params url.Values, set map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}

	for k, v := range set {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}

	if len(q) == 0 {
		return "/"
	}

	return "/?" + q.Encode()
}

// returnPath is the local page to go back to after a form post.
func returnPath(c *gin.Context) string {
	path := c.PostForm("return")
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return "/"
	}

	return path
}
