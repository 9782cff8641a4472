package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	// Airtable personal access tokens: "pat", a 14 character id, a dot and
	// a 64 hex digit secret.
	airtableTokenPattern = regexp.MustCompile(`^pat[A-Za-z0-9]{14}\.[a-f0-9]{64}$`)

	// Authorization header values as the source client sends them.
	bearerPattern = regexp.MustCompile(`(?i)^bearer\s+.+$`)
)

// credentialFields are attribute and struct field names that hold the record
// source credentials. config.SourceConfig.APIKey and its koanf key api_key are
// both covered.
var credentialFields = []string{
	"APIKey",
	"apiKey",
	"api_key",
	"apikey",
	"Authorization",
	"authorization",
	"token",
	"password",
	"secret",
}

// DefaultRedactOptions returns the masq options applied to every log output.
// Values are hidden when their attribute name is a credential field, or when
// the value itself looks like an Airtable token or a bearer header.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(credentialFields)+3)
	for _, name := range credentialFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithRegex(airtableTokenPattern),
		masq.WithRegex(bearerPattern),
	)
}

// NewReplaceAttr creates a ReplaceAttr function for slog.HandlerOptions
// that redacts sensitive data matched by DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	allOpts := append(DefaultRedactOptions(), opts...)
	return masq.New(allOpts...)
}
