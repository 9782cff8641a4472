package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
)

// cardChrome is the border and padding around a card's text, in cells.
const cardChrome = 4

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case stateLoading:
		return "\n  " + m.spinner.View() + " Loading quotes…\n"
	case stateFailed:
		return m.failedView()
	}

	header := m.headerView()
	footer := m.help.View(m.keys)
	avail := m.height - lipgloss.Height(header) - lipgloss.Height(footer)

	var body string
	if m.overlay {
		body = m.overlayView(avail)
	} else {
		body = m.columnsView(avail)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) failedView() string {
	var b strings.Builder

	b.WriteString("\n  " + m.styles.errText.Render("Unable to load quotes.") + "\n")
	if m.err != nil {
		b.WriteString("  " + m.styles.muted.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n  " + m.styles.muted.Render("r retry · q quit") + "\n")

	return b.String()
}

func (m *Model) headerView() string {
	group := m.sel.GroupFilter()
	groups := m.sel.AvailableGroups()

	nav := fmt.Sprintf("%s %s  %s %s  %s %s",
		m.styles.muted.Render("group"), m.styles.active.Render(group),
		m.styles.muted.Render("sort"), m.styles.active.Render(m.sel.SortMode().Label()),
		m.styles.muted.Render("showing"), strconv.Itoa(m.arrangement.Len()),
	)
	if len(groups) > 1 {
		nav += m.styles.muted.Render(fmt.Sprintf(" of %d groups", len(groups)-1))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.title.Render(m.cfg.Title)+"  "+nav,
		m.featuredView(),
		"",
	)
}

func (m *Model) featuredView() string {
	q, ok := m.carousel.Current()
	if !ok {
		return ""
	}

	style := m.styles.featured
	if m.carousel.Fading() {
		style = m.styles.fading
	}
	if m.width > 0 {
		style = style.MaxWidth(m.width)
	}

	pos := fmt.Sprintf("%d/%d", m.carousel.Index()+1, m.carousel.Len())

	return style.Render(fmt.Sprintf("★ “%s” — %s  %s", oneLine(q.Text), q.Author, pos))
}

func (m *Model) columnsView(avail int) string {
	if m.arrangement.Len() == 0 {
		return m.styles.muted.Render("No quotes in this group.")
	}

	width := m.cardWidth(m.columns)
	spacer := strings.Repeat(" ", m.cfg.Gap)

	selTop, selBottom := 0, 0
	rendered := make([]string, 0, 2*len(m.arrangement.Columns))

	for c, col := range m.arrangement.Columns {
		if c > 0 {
			rendered = append(rendered, spacer)
		}

		cards := make([]string, 0, len(col))
		top := 0
		for r, p := range col {
			style := m.styles.card
			isSelected := c == m.col && r == m.row
			if isSelected {
				style = m.styles.selected
			}

			card := style.Width(width - 2).Render(cardBody(p.Quote, m.styles))
			if isSelected {
				selTop, selBottom = top, top+lipgloss.Height(card)
			}
			top += lipgloss.Height(card)
			cards = append(cards, card)
		}

		if len(cards) == 0 {
			cards = append(cards, lipgloss.NewStyle().Width(width).Render(""))
		}
		rendered = append(rendered, lipgloss.JoinVertical(lipgloss.Left, cards...))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	return scroll(body, avail, selTop, selBottom)
}

func (m *Model) overlayView(avail int) string {
	q, ok := m.selected()
	if !ok {
		return ""
	}

	width := 60
	if m.width > 0 {
		width = min(width, m.width-8)
	}

	lines := []string{
		lipgloss.NewStyle().Italic(true).Width(width).Render("“" + q.Text + "”"),
		"",
		m.styles.title.Render(q.Author) + m.styles.muted.Render(", "+strconv.Itoa(q.Year)),
		lipgloss.NewStyle().Width(width).Render(q.Bio),
		"",
		m.styles.muted.Render("group    ") + q.Group,
	}
	if q.HasPriority() {
		lines = append(lines, m.styles.muted.Render("priority ")+q.Priority)
	}
	lines = append(lines,
		m.styles.muted.Render("source   ")+q.URL,
		m.styles.muted.Render("image    ")+q.Image,
		"",
		m.styles.muted.Render("esc to close"),
	)

	box := m.styles.overlay.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if m.width <= 0 || avail <= 0 {
		return box
	}

	return lipgloss.Place(m.width, avail, lipgloss.Center, lipgloss.Center, box)
}

func cardBody(q domain.Quote, s styles) string {
	return q.Text + "\n" + s.author.Render("— "+q.Author+", "+strconv.Itoa(q.Year))
}

// cardLines estimates the rendered height of a card of the given outer
// width: wrapped text, the author line and the border.
func cardLines(q domain.Quote, width int) int {
	inner := max(width-cardChrome, 1)
	text := (len([]rune(q.Text)) + inner - 1) / inner

	return max(text, 1) + 1 + 2
}

// scroll cuts body to avail lines, keeping the span [top, bottom) visible.
// A non-positive avail means the height is unknown and nothing is cut.
func scroll(body string, avail, top, bottom int) string {
	if avail <= 0 {
		return body
	}

	lines := strings.Split(body, "\n")
	if len(lines) <= avail {
		return body
	}

	offset := 0
	if bottom > avail {
		offset = min(bottom-avail, top)
	}
	end := min(offset+avail, len(lines))

	return strings.Join(lines[offset:end], "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
