package gallery

import (
	"math"
	"strings"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// Normalize validates raw records and canonicalises their groups.
// Records with an empty text, author, url, bio or image, or a year that is
// missing, zero or not finite, are dropped; the count of dropped records is
// returned alongside the kept quotes, which stay in source order.
//
// Empty group labels become domain.GroupUncategorized, then labels are
// unified case-insensitively: the first kept record using a label fixes its
// casing for every other record.
func Normalize(raw []domain.RawQuote) ([]domain.Quote, int) {
	kept := make([]domain.Quote, 0, len(raw))

	for _, r := range raw {
		q, ok := validate(r)
		if !ok {
			continue
		}

		kept = append(kept, q)
	}

	canonicalizeGroups(kept)

	return kept, len(raw) - len(kept)
}

func validate(r domain.RawQuote) (domain.Quote, bool) {
	if r.Text == "" || r.Author == "" || r.URL == "" || r.Bio == "" || r.Image == "" {
		return domain.Quote{}, false
	}

	// Zero counts as missing, like an empty string.
	if r.Year == nil || *r.Year == 0 || math.IsNaN(*r.Year) || math.IsInf(*r.Year, 0) {
		return domain.Quote{}, false
	}

	q := domain.Quote{
		Text:   r.Text,
		Author: r.Author,
		Year:   int(math.Trunc(*r.Year)),
		URL:    r.URL,
		Bio:    r.Bio,
		Image:  r.Image,
		Group:  strings.TrimSpace(r.Group),
	}
	if q.Group == "" {
		q.Group = domain.GroupUncategorized
	}
	if r.Priority != nil {
		q.Priority = *r.Priority
	}

	return q, true
}

func canonicalizeGroups(quotes []domain.Quote) {
	canonical := make(map[string]string)

	for _, q := range quotes {
		key := strings.ToLower(q.Group)
		if _, seen := canonical[key]; !seen {
			canonical[key] = q.Group
		}
	}

	for i := range quotes {
		quotes[i].Group = canonical[strings.ToLower(quotes[i].Group)]
	}
}
