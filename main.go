package main

import (
	"context"
	"fmt"
	"os"

	"github.com/PedroElizalde01/gecscore/dataset"
	"github.com/PedroElizalde01/gecscore/score"
	"github.com/PedroElizalde01/gecscore/ui"
	tea "github.com/charmbracelet/bubbletea"
)

// loader reads the true and predicted datasets and pairs their rows.
type loader func() (*dataset.Table, []score.Pair, []score.Pair, error)

type evaluatedMsg struct {
	req       int
	table     *dataset.Table
	truth     []score.Pair
	predicted []score.Pair
	rows      []score.RowResult
	report    score.Report
	err       error
}

type model struct {
	filter        ui.Filter
	focus         ui.Focus
	load          loader
	table         *dataset.Table
	truth         []score.Pair
	predicted     []score.Pair
	workers       int
	results       []score.RowResult
	report        *score.Report
	visible       []int
	labels        []string
	selected      int
	lines         []ui.Line
	cursor        int
	cursors       map[int]int
	sidebarScroll int
	lineScroll    int
	width         int
	height        int
	errMsg        string
	evalReq       int
}

func initialModel(load loader, workers int) model {
	return model{
		filter:  ui.AllRows,
		focus:   ui.FocusRows,
		load:    load,
		table:   &dataset.Table{},
		workers: workers,
		labels:  []string{"(evaluating...)"},
		lines:   loadingLines("evaluating..."),
		cursors: map[int]int{},
		width:   120,
		height:  32,
		evalReq: 1,
	}
}

func (m model) Init() tea.Cmd {
	return evaluateCmd(m.load, m.workers, m.evalReq)
}

func evaluateCmd(load loader, workers, req int) tea.Cmd {
	return func() tea.Msg {
		table, truth, predicted, err := load()
		if err != nil {
			return evaluatedMsg{req: req, err: err}
		}
		rows, err := score.EvaluateRows(context.Background(), truth, predicted, score.WithWorkers(workers))
		if err != nil {
			return evaluatedMsg{req: req, err: err}
		}
		return evaluatedMsg{
			req:       req,
			table:     table,
			truth:     truth,
			predicted: predicted,
			rows:      rows,
			report:    score.NewReport(score.Sum(rows)),
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureSidebarVisible()
		m.ensureCursorVisible()
		return m, nil
	case evaluatedMsg:
		if msg.req != m.evalReq {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = dataset.FriendlyError(msg.err)
			m.results = nil
			m.report = nil
			m.applyFilter()
			return m, nil
		}

		m.errMsg = ""
		m.table = msg.table
		m.truth = msg.truth
		m.predicted = msg.predicted
		m.results = msg.rows
		report := msg.report
		m.report = &report
		m.applyFilter()
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			m.saveCursor()
			m.filter = m.filter.Toggle()
			m.applyFilter()
			return m, nil
		case "r":
			m.saveCursor()
			m.evalReq++
			return m, evaluateCmd(m.load, m.workers, m.evalReq)
		}

		switch m.focus {
		case ui.FocusRows:
			switch key {
			case "up", "k":
				m.moveSelection(-1)
			case "down", "j":
				m.moveSelection(1)
			case "enter", "right":
				m.focus = ui.FocusGold
			}
			return m, nil
		case ui.FocusGold:
			switch key {
			case "up", "k":
				m.moveCursor(-1)
			case "down", "j":
				m.moveCursor(1)
			case "left":
				m.focus = ui.FocusRows
			case "right":
				m.focus = ui.FocusPredicted
			case "n":
				m.jumpMiss(1)
			case "p":
				m.jumpMiss(-1)
			case "g":
				m.goTop()
			case "G":
				m.goBottom()
			}
			return m, nil
		case ui.FocusPredicted:
			switch key {
			case "up", "k":
				m.moveCursor(-1)
			case "down", "j":
				m.moveCursor(1)
			case "left":
				m.focus = ui.FocusGold
			case "n":
				m.jumpMiss(1)
			case "p":
				m.jumpMiss(-1)
			case "g":
				m.goTop()
			case "G":
				m.goBottom()
			}
			return m, nil
		}
	}

	return m, nil
}

func (m model) View() string {
	return ui.Render(ui.RenderModel{
		Width:         m.width,
		Height:        m.height,
		FilterLabel:   m.filter.String(),
		Focus:         m.focus,
		Rows:          m.labels,
		Selected:      m.selected,
		SidebarScroll: m.sidebarScroll,
		Lines:         m.lines,
		Cursor:        m.cursor,
		LineScroll:    m.lineScroll,
		SelectedRow:   m.selectedLabel(),
		Report:        m.report,
		Error:         m.errMsg,
	})
}

// applyFilter rebuilds the sidebar for the current filter, keeping the
// selected row when it is still listed.
func (m *model) applyFilter() {
	prev := m.selectedRow()

	m.visible = m.visible[:0]
	m.labels = m.labels[:0]
	for i, res := range m.results {
		if !m.filter.Keep(res.Counts) {
			continue
		}
		m.visible = append(m.visible, i)
		m.labels = append(m.labels, ui.RowLabel(m.table.ID(i), res.Counts))
	}

	if len(m.visible) == 0 {
		m.labels = []string{"(no rows)"}
		m.selected = 0
		m.sidebarScroll = 0
		m.lines = noRowLines()
		m.cursor = 0
		m.lineScroll = 0
		return
	}

	m.selected = clamp(m.selected, 0, len(m.visible)-1)
	if prev >= 0 {
		if idx := indexOf(prev, m.visible); idx >= 0 {
			m.selected = idx
		}
	}
	m.ensureSidebarVisible()
	m.loadLines()
}

func (m *model) loadLines() {
	row := m.selectedRow()
	if row < 0 {
		m.lines = noRowLines()
		m.cursor = 0
		m.lineScroll = 0
		return
	}

	m.lines = ui.Lines(m.truth[row].Original, m.truth[row].Target, m.predicted[row].Target, m.results[row])
	if c, ok := m.cursors[row]; ok {
		m.cursor = clamp(c, 0, len(m.lines)-1)
	} else {
		m.cursor = ui.FirstEvent(m.lines)
	}
	m.lineScroll = 0
	m.ensureCursorVisible()
}

func (m *model) moveSelection(delta int) {
	if len(m.visible) == 0 {
		return
	}

	m.saveCursor()
	next := clamp(m.selected+delta, 0, len(m.visible)-1)
	if next == m.selected {
		return
	}

	m.selected = next
	m.ensureSidebarVisible()
	m.loadLines()
}

func (m *model) moveCursor(delta int) {
	if len(m.lines) == 0 {
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(m.lines)-1)
	m.saveCursor()
	m.ensureCursorVisible()
}

// jumpMiss moves the cursor to the next or previous event that is not a
// true positive.
func (m *model) jumpMiss(direction int) {
	if direction > 0 {
		for i := m.cursor + 1; i < len(m.lines); i++ {
			if m.lines[i].IsMiss() {
				m.cursor = i
				m.saveCursor()
				m.ensureCursorVisible()
				return
			}
		}
		return
	}

	for i := m.cursor - 1; i >= 0; i-- {
		if m.lines[i].IsMiss() {
			m.cursor = i
			m.saveCursor()
			m.ensureCursorVisible()
			return
		}
	}
}

func (m *model) goTop() {
	if len(m.lines) == 0 {
		return
	}
	m.cursor = 0
	m.saveCursor()
	m.ensureCursorVisible()
}

func (m *model) goBottom() {
	if len(m.lines) == 0 {
		return
	}
	m.cursor = len(m.lines) - 1
	m.saveCursor()
	m.ensureCursorVisible()
}

func (m *model) saveCursor() {
	row := m.selectedRow()
	if row < 0 {
		return
	}
	m.cursors[row] = m.cursor
}

// selectedRow is the dataset index of the selected sidebar entry, or -1.
func (m *model) selectedRow() int {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return -1
	}
	return m.visible[m.selected]
}

func (m *model) selectedLabel() string {
	row := m.selectedRow()
	if row < 0 {
		return ""
	}
	return m.table.ID(row)
}

func (m *model) bodyHeight() int {
	if m.height <= 1 {
		return 1
	}
	return m.height - 1
}

func (m *model) ensureSidebarVisible() {
	if len(m.labels) == 0 {
		m.sidebarScroll = 0
		return
	}

	visible := m.bodyHeight() - 1
	if visible < 1 {
		visible = 1
	}

	if m.selected < m.sidebarScroll {
		m.sidebarScroll = m.selected
	}
	if m.selected >= m.sidebarScroll+visible {
		m.sidebarScroll = m.selected - visible + 1
	}

	maxScroll := len(m.labels) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	m.sidebarScroll = clamp(m.sidebarScroll, 0, maxScroll)
}

func (m *model) ensureCursorVisible() {
	if len(m.lines) == 0 {
		m.cursor = 0
		m.lineScroll = 0
		return
	}

	m.cursor = clamp(m.cursor, 0, len(m.lines)-1)
	visible := m.bodyHeight() - 1
	if visible < 1 {
		visible = 1
	}

	if m.cursor < m.lineScroll {
		m.lineScroll = m.cursor
	}
	if m.cursor >= m.lineScroll+visible {
		m.lineScroll = m.cursor - visible + 1
	}

	maxScroll := len(m.lines) - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	m.lineScroll = clamp(m.lineScroll, 0, maxScroll)
}

func noRowLines() []ui.Line {
	return []ui.Line{{Kind: ui.Meta, Gold: "(no row)", Predicted: "(no row)"}}
}

func loadingLines(message string) []ui.Line {
	return []ui.Line{{Kind: ui.Meta, Gold: fmt.Sprintf("(%s)", message), Predicted: fmt.Sprintf("(%s)", message)}}
}

func indexOf(needle int, list []int) int {
	for i := range list {
		if list[i] == needle {
			return i
		}
	}
	return -1
}

func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gecscore:", dataset.FriendlyError(err))
		os.Exit(1)
	}
}
