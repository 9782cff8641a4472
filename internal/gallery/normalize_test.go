package gallery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

func year(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func validRaw(text, group string) domain.RawQuote {
	return domain.RawQuote{
		Text:   text,
		Author: "Ada Lovelace",
		Year:   year(1843),
		URL:    "https://example.com/" + text,
		Bio:    "Mathematician",
		Image:  "https://example.com/ada.png",
		Group:  group,
	}
}

func TestNormalize_DropsIncompleteRecords(t *testing.T) {
	missing := func(mutate func(*domain.RawQuote)) domain.RawQuote {
		r := validRaw("x", "Science")
		mutate(&r)

		return r
	}

	raw := []domain.RawQuote{
		validRaw("kept-1", "Science"),
		missing(func(r *domain.RawQuote) { r.Image = "" }),
		missing(func(r *domain.RawQuote) { r.Text = "" }),
		missing(func(r *domain.RawQuote) { r.Author = "" }),
		missing(func(r *domain.RawQuote) { r.URL = "" }),
		missing(func(r *domain.RawQuote) { r.Bio = "" }),
		missing(func(r *domain.RawQuote) { r.Year = nil }),
		missing(func(r *domain.RawQuote) { r.Year = year(math.NaN()) }),
		missing(func(r *domain.RawQuote) { r.Year = year(math.Inf(1)) }),
		missing(func(r *domain.RawQuote) { r.Year = year(0) }),
		validRaw("kept-2", "Art"),
	}

	quotes, dropped := Normalize(raw)

	require.Len(t, quotes, 2)
	assert.Equal(t, 9, dropped)
	assert.Equal(t, len(raw)-dropped, len(quotes))
	assert.Equal(t, "kept-1", quotes[0].Text)
	assert.Equal(t, "kept-2", quotes[1].Text)
}

func TestNormalize_WhitespaceIsNotEmpty(t *testing.T) {
	r := validRaw(" ", "Art")
	r.Bio = "  "

	quotes, dropped := Normalize([]domain.RawQuote{r})

	assert.Zero(t, dropped)
	require.Len(t, quotes, 1)
	assert.Equal(t, " ", quotes[0].Text)
}

func TestNormalize_EmptyGroupJoinsUncategorized(t *testing.T) {
	quotes, _ := Normalize([]domain.RawQuote{
		validRaw("1", ""),
		validRaw("2", "uncategorized"),
		validRaw("3", "UNCATEGORIZED"),
	})

	for _, q := range quotes {
		assert.Equal(t, domain.GroupUncategorized, q.Group, q.Text)
	}
	assert.Equal(t, []string{domain.GroupAll, domain.GroupUncategorized}, NewSelection(quotes).AvailableGroups())
}

func TestNormalize_MissingImageExample(t *testing.T) {
	raw := []domain.RawQuote{validRaw("a", "G"), validRaw("b", "G"), validRaw("c", "G")}
	raw[1].Image = ""

	quotes, dropped := Normalize(raw)

	assert.Equal(t, 1, dropped)
	assert.Len(t, quotes, len(raw)-1)
}

func TestNormalize_CanonicalGroups(t *testing.T) {
	raw := []domain.RawQuote{
		validRaw("1", "  Philosophy "),
		validRaw("2", "PHILOSOPHY"),
		validRaw("3", "science"),
		validRaw("4", ""),
		validRaw("5", "Science"),
		validRaw("6", "philosophy"),
	}

	quotes, dropped := Normalize(raw)

	require.Zero(t, dropped)
	groups := make([]string, len(quotes))
	for i, q := range quotes {
		groups[i] = q.Group
	}

	assert.Equal(t, []string{
		"Philosophy", "Philosophy", "science", domain.GroupUncategorized, "science", "Philosophy",
	}, groups)
}

func TestNormalize_CanonicalCasingIgnoresDroppedRecords(t *testing.T) {
	first := validRaw("dropped", "ART")
	first.Image = ""

	quotes, dropped := Normalize([]domain.RawQuote{first, validRaw("kept", "Art"), validRaw("kept2", "art")})

	assert.Equal(t, 1, dropped)
	assert.Equal(t, "Art", quotes[0].Group)
	assert.Equal(t, "Art", quotes[1].Group)
}

func TestNormalize_YearAndPriority(t *testing.T) {
	r := validRaw("x", "G")
	r.Year = year(1999.7)
	r.Priority = str("High")

	noPriority := validRaw("y", "G")

	quotes, _ := Normalize([]domain.RawQuote{r, noPriority})

	require.Len(t, quotes, 2)
	assert.Equal(t, 1999, quotes[0].Year)
	assert.Equal(t, "High", quotes[0].Priority)
	assert.True(t, quotes[0].HasPriority())
	assert.False(t, quotes[1].HasPriority())
}

func TestNormalize_Empty(t *testing.T) {
	quotes, dropped := Normalize(nil)

	assert.NotNil(t, quotes)
	assert.Empty(t, quotes)
	assert.Zero(t, dropped)
}
