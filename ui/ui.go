package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PedroElizalde01/gecscore/diff"
	"github.com/PedroElizalde01/gecscore/score"
	"github.com/charmbracelet/lipgloss"
)

type Focus int

const (
	FocusRows Focus = iota
	FocusGold
	FocusPredicted
)

func (f Focus) String() string {
	switch f {
	case FocusGold:
		return "gold"
	case FocusPredicted:
		return "predicted"
	default:
		return "rows"
	}
}

// Filter selects which rows the sidebar lists.
type Filter int

const (
	AllRows Filter = iota
	ErrorRows
)

func (f Filter) String() string {
	if f == ErrorRows {
		return "ERRORS"
	}
	return "ALL"
}

func (f Filter) Toggle() Filter {
	if f == ErrorRows {
		return AllRows
	}
	return ErrorRows
}

// Keep reports whether a row with counts c is listed under f.
func (f Filter) Keep(c score.Counts) bool {
	return f == AllRows || c.Errors() > 0
}

type RenderModel struct {
	Width         int
	Height        int
	FilterLabel   string
	Focus         Focus
	Rows          []string
	Selected      int
	SidebarScroll int
	Lines         []Line
	Cursor        int
	LineScroll    int
	SelectedRow   string
	Report        *score.Report
	Error         string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)

	selectedFocusedStyle   = lipgloss.NewStyle().Bold(true).Reverse(true)
	selectedUnfocusedStyle = lipgloss.NewStyle().Bold(true)

	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sentenceStyle = lipgloss.NewStyle()
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("236"))

	goldWordHighlight = lipgloss.NewStyle().Background(lipgloss.Color("22")).Foreground(lipgloss.Color("255"))
	predWordHighlight = lipgloss.NewStyle().Background(lipgloss.Color("24")).Foreground(lipgloss.Color("255"))

	eventStyles = map[score.Kind]lipgloss.Style{
		score.TruePositive:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		score.FalsePositive:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		score.FalseMissing:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		score.FalseRedundant: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}

	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RowLabel is the sidebar entry of one row.
func RowLabel(id string, c score.Counts) string {
	return fmt.Sprintf("%s %d/%d/%d/%d", id, c.TruePositive, c.FalsePositive, c.FalseMissing, c.FalseRedundant)
}

func Render(m RenderModel) string {
	if m.Width <= 0 || m.Height <= 0 {
		return ""
	}
	if len(m.Rows) == 0 {
		m.Rows = []string{"(no rows)"}
	}
	if len(m.Lines) == 0 {
		m.Lines = []Line{{Kind: Meta, Gold: "(no row)", Predicted: "(no row)"}}
	}

	headerText := fmt.Sprintf("GECScore | view: %s | focus: %s", strings.ToUpper(m.FilterLabel), m.Focus.String())
	if m.Report != nil {
		headerText += fmt.Sprintf(" | recall: %.2f%% precision: %.2f%%", m.Report.Recall, m.Report.Precision)
	}
	if m.SelectedRow != "" {
		headerText += " | row: " + m.SelectedRow
	}
	if m.Error != "" {
		headerText += " | error: " + m.Error
	}
	headerLine := headerStyle.Render(fitWidth(headerText, m.Width))

	bodyHeight := m.Height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	sidebarWidth := calcSidebarWidth(m.Width)
	mainWidth := m.Width - sidebarWidth - 2
	if mainWidth < 4 {
		mainWidth = 4
		sidebarWidth = m.Width - mainWidth - 2
		if sidebarWidth < 1 {
			sidebarWidth = 1
		}
	}

	leftPaneWidth := (mainWidth - 1) / 2
	rightPaneWidth := mainWidth - 1 - leftPaneWidth
	if leftPaneWidth < 1 {
		leftPaneWidth = 1
	}
	if rightPaneWidth < 1 {
		rightPaneWidth = 1
	}

	sidebar := renderSidebar(m, sidebarWidth, bodyHeight)
	goldPane, predPane := renderPanes(m, leftPaneWidth, rightPaneWidth, bodyHeight)
	sep := separatorStyle.Render("│")
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, sep, goldPane, sep, predPane)

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, body)
}

// RenderReport draws a boxed summary of r for terminal output.
func RenderReport(r score.Report, rows int) string {
	lines := []string{
		titleStyle.Render("Evaluation"),
		fmt.Sprintf("rows        %d", rows),
		fmt.Sprintf("recall      %.2f%%", r.Recall),
		fmt.Sprintf("precision   %.2f%%", r.Precision),
		eventStyles[score.TruePositive].Render(fmt.Sprintf("TP          %d", r.TruePositives)),
		eventStyles[score.FalsePositive].Render(fmt.Sprintf("FP          %d", r.FalsePositives)),
		eventStyles[score.FalseMissing].Render(fmt.Sprintf("FM          %d", r.FalseMissings)),
		eventStyles[score.FalseRedundant].Render(fmt.Sprintf("FR          %d", r.FalseRedundants)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderSpans lists spans one per line for the diff command.
func RenderSpans(spans []diff.Span) string {
	if len(spans) == 0 {
		return metaStyle.Render("(no differences)")
	}
	var b strings.Builder
	for i, s := range spans {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s",
			metaStyle.Render(fmt.Sprintf("[%d:%d → %d:%d]", s.LeftStart, s.LeftEnd, s.RightStart, s.RightEnd)),
			spanText(s))
	}
	return b.String()
}

func renderSidebar(m RenderModel, width, height int) string {
	lines := make([]string, 0, height)
	lines = append(lines, titleStyle.Render(fitWidth("ROWS", width)))

	listHeight := height - 1
	if listHeight < 1 {
		return strings.Join(lines, "\n")
	}

	for i := 0; i < listHeight; i++ {
		idx := m.SidebarScroll + i
		line := ""
		if idx >= 0 && idx < len(m.Rows) {
			line = m.Rows[idx]
		}
		line = fitWidth(line, width)

		if idx == m.Selected {
			if m.Focus == FocusRows {
				line = selectedFocusedStyle.Render(line)
			} else {
				line = selectedUnfocusedStyle.Render(line)
			}
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func renderPanes(m RenderModel, leftWidth, rightWidth, height int) (string, string) {
	goldLines := make([]string, 0, height)
	predLines := make([]string, 0, height)
	goldLines = append(goldLines, titleStyle.Render(fitWidth("GOLD", leftWidth)))
	predLines = append(predLines, titleStyle.Render(fitWidth("PREDICTED", rightWidth)))

	contentHeight := height - 1
	if contentHeight < 1 {
		return strings.Join(goldLines, "\n"), strings.Join(predLines, "\n")
	}

	goldNoWidth := offsetWidth(m.Lines, true)
	predNoWidth := offsetWidth(m.Lines, false)
	showCursor := m.Focus == FocusGold || m.Focus == FocusPredicted

	for i := 0; i < contentHeight; i++ {
		idx := m.LineScroll + i
		if idx < 0 || idx >= len(m.Lines) {
			goldLines = append(goldLines, fitWidth("", leftWidth))
			predLines = append(predLines, fitWidth("", rightWidth))
			continue
		}

		line := m.Lines[idx]
		cursor := showCursor && idx == m.Cursor
		goldText := line.Gold
		predText := line.Predicted
		if line.Kind == Sentence {
			goldText = highlight(line.Gold, line.GoldMarks, goldWordHighlight)
			predText = highlight(line.Predicted, line.PredMarks, predWordHighlight)
		}

		goldLines = append(goldLines, renderPaneLine(line, goldText, line.GoldAt, goldNoWidth, leftWidth, cursor))
		predLines = append(predLines, renderPaneLine(line, predText, line.PredAt, predNoWidth, rightWidth, cursor))
	}

	return strings.Join(goldLines, "\n"), strings.Join(predLines, "\n")
}

func renderPaneLine(line Line, text string, at *int, noWidth, width int, cursor bool) string {
	noText := ""
	if at != nil {
		noText = strconv.Itoa(*at)
	}
	if line.Kind == Event && text != "" {
		text = "[" + line.Event.String() + "] " + text
	}
	text = paneStyle(line).Render(text)
	out := formatPaneCell(noText, text, noWidth, width)

	if cursor {
		out = cursorStyle.Render(out)
	}
	return out
}

func paneStyle(line Line) lipgloss.Style {
	switch line.Kind {
	case Meta:
		return metaStyle
	case Sentence:
		return sentenceStyle
	}
	if style, ok := eventStyles[line.Event]; ok {
		return style
	}
	return sentenceStyle
}

func offsetWidth(lines []Line, gold bool) int {
	maxNo := 0
	for i := range lines {
		at := lines[i].PredAt
		if gold {
			at = lines[i].GoldAt
		}
		if at != nil && *at > maxNo {
			maxNo = *at
		}
	}
	width := len(strconv.Itoa(maxNo))
	if width < 3 {
		return 3
	}
	return width
}

func calcSidebarWidth(totalWidth int) int {
	width := 32
	if totalWidth < 90 {
		width = 28
	}
	if totalWidth > 140 {
		width = 36
	}
	maxAllowed := totalWidth - 20
	if maxAllowed < 16 {
		maxAllowed = 16
	}
	if width > maxAllowed {
		width = maxAllowed
	}
	if width < 16 {
		width = 16
	}
	return width
}

func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().MaxWidth(width).Width(width).Render(s)
}

func formatPaneCell(noText, text string, noWidth, width int) string {
	prefix := fmt.Sprintf("%*s ", noWidth, noText)
	contentWidth := width - lipgloss.Width(prefix)
	if contentWidth < 0 {
		contentWidth = 0
	}
	text = lipgloss.NewStyle().MaxWidth(contentWidth).Render(text)
	return fitWidth(prefix+text, width)
}

// highlight re-joins the tokens of text with single spaces, styling the
// tokens that fall inside marks.
func highlight(text string, marks [][2]int, style lipgloss.Style) string {
	tokens := diff.Tokenize(text)
	if len(tokens) == 0 {
		return metaStyle.Render("(empty)")
	}

	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		if marked(i, marks) {
			b.WriteString(style.Render(tok))
		} else {
			b.WriteString(tok)
		}
	}
	return b.String()
}

func marked(i int, marks [][2]int) bool {
	for _, m := range marks {
		if i >= m[0] && i < m[1] {
			return true
		}
	}
	return false
}
