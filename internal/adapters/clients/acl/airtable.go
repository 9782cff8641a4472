package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/clients"
	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/platform/config"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
)

const (
	defaultSourceName = "airtable"
	operationList     = "list records"
)

// AirtableAdapter reads the quote table through the Airtable REST API.
// It implements ports.RecordSource and ports.HealthChecker.
type AirtableAdapter struct {
	BaseAdapter
	cfg config.SourceConfig
}

// listResponse is one page of GET /v0/{base}/{table}.
type listResponse struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset"`
}

type airtableRecord struct {
	ID     string                     `json:"id"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type attachment struct {
	URL string `json:"url"`
}

// NewAirtableAdapter creates an adapter for the table described by cfg.
func NewAirtableAdapter(client *clients.Client, cfg config.SourceConfig) *AirtableAdapter {
	if client == nil {
		panic("airtable adapter requires a client")
	}

	name := cfg.Name
	if name == "" {
		name = defaultSourceName
	}

	return &AirtableAdapter{
		BaseAdapter: NewBaseAdapter(client, name),
		cfg:         cfg,
	}
}

// NewAirtableSource builds the resilient HTTP client for source and wraps
// it in an adapter.
func NewAirtableSource(client config.ClientConfig, source config.SourceConfig, userAgent string, logger *slog.Logger) (*AirtableAdapter, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     source.BaseURL,
		ServiceName: source.Name,
		Timeout:     client.Timeout,
		Retry:       client.Retry,
		Circuit:     client.CircuitBreaker,
		Transport:   client.Transport,
		AuthFunc:    BearerAuth(source.APIKey),
		UserAgent:   userAgent,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", source.Name, err)
	}

	return NewAirtableAdapter(httpClient, source), nil
}

// BearerAuth returns a clients.Config AuthFunc sending apiKey as a bearer
// token.
func BearerAuth(apiKey string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// Name identifies the source.
func (a *AirtableAdapter) Name() string {
	return a.ServiceName()
}

// Check reports the source unhealthy while the circuit breaker is open.
// It never contacts Airtable, so probes do not spend rate limit.
func (a *AirtableAdapter) Check(_ context.Context) error {
	if a.Client().CircuitState() == clients.StateOpen {
		return domain.NewUnavailableError(a.ServiceName(), "circuit breaker open")
	}

	return nil
}

// ListQuotes fetches every page of the configured view, following the
// offset token, and returns the records in source order.
func (a *AirtableAdapter) ListQuotes(ctx context.Context) ([]domain.RawQuote, error) {
	logger := logging.FromContext(ctx).With(slog.String("source", a.ServiceName()))
	path := "/v0/" + url.PathEscape(a.cfg.BaseID) + "/" + url.PathEscape(a.cfg.Table)

	var (
		out    []domain.RawQuote
		offset string
		seen   = make(map[string]struct{})
	)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := a.Get(ctx, path, a.query(offset), operationList, a.cfg.Table)
		if err != nil {
			return nil, err
		}

		resp, err := DecodeResponse[listResponse](body)
		if err != nil {
			return nil, domain.NewUnavailableError(a.ServiceName(), err.Error())
		}

		raws, err := TranslateSlice(resp.Records, a.translate)
		if err != nil {
			return nil, domain.NewUnavailableError(a.ServiceName(), err.Error())
		}
		out = append(out, raws...)

		logger.Log(ctx, logging.LevelTrace, "fetched page",
			slog.Int("page", page),
			slog.Int("records", len(resp.Records)),
		)

		if resp.Offset == "" {
			break
		}
		if _, dup := seen[resp.Offset]; dup {
			return nil, domain.NewUnavailableError(a.ServiceName(),
				fmt.Sprintf("offset %q repeated on page %d", resp.Offset, page))
		}
		seen[resp.Offset] = struct{}{}
		offset = resp.Offset
	}

	logger.Debug("records fetched", slog.Int("records", len(out)))

	return out, nil
}

func (a *AirtableAdapter) query(offset string) url.Values {
	q := url.Values{}
	if a.cfg.View != "" {
		q.Set("view", a.cfg.View)
	}
	if a.cfg.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(a.cfg.PageSize))
	}
	if a.cfg.Dialect == config.DialectID {
		q.Set("returnFieldsByFieldId", "true")
	}
	if offset != "" {
		q.Set("offset", offset)
	}

	return q
}

func (a *AirtableAdapter) translate(rec *airtableRecord) (domain.RawQuote, error) {
	f := a.cfg.Fields
	get := func(key string) json.RawMessage { return rec.Fields[key] }

	return domain.RawQuote{
		Text:     textValue(get(f.Text)),
		Author:   textValue(get(f.Author)),
		Year:     yearValue(get(f.Year)),
		URL:      textValue(get(f.URL)),
		Bio:      textValue(get(f.Bio)),
		Image:    imageValue(get(f.Image)),
		Group:    groupValue(get(f.Group)),
		Priority: priorityValue(get(f.Priority)),
	}, nil
}

// textValue returns a JSON string field, or "" for anything else.
func textValue(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}

	return s
}

// yearValue accepts a number or a numeric string.
func yearValue(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}

	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return &n
	}

	var s string
	if json.Unmarshal(raw, &s) != nil {
		return nil
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}

	return &n
}

// imageValue accepts a URL string or an attachment list, taking the first
// attachment's url.
func imageValue(raw json.RawMessage) string {
	if s := textValue(raw); s != "" {
		return s
	}

	var list []attachment
	if json.Unmarshal(raw, &list) != nil || len(list) == 0 {
		return ""
	}

	return list[0].URL
}

// groupValue accepts a label or a list of labels, taking the first.
func groupValue(raw json.RawMessage) string {
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		if len(list) == 0 {
			return ""
		}
		raw = list[0]
	}

	return strings.TrimSpace(stringify(raw))
}

// priorityValue stringifies any non-null value.
func priorityValue(raw json.RawMessage) *string {
	if isNull(raw) {
		return nil
	}

	s := stringify(raw)

	return &s
}

// stringify renders a scalar as text and joins list elements with commas.
// Objects are returned as their JSON text.
func stringify(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		parts := make([]string, len(list))
		for i, el := range list {
			parts[i] = stringify(el)
		}
		return strings.Join(parts, ",")
	}

	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}

	return string(bytes.TrimSpace(raw))
}

// isNull reports an absent field or an explicit JSON null.
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
