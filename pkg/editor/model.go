// Package editor is a terminal editor for string tables. It shows a
// document as pages of rows and edits it through the document package, so
// every change is undoable and saved through the codec.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ssargent/stfkit/pkg/document"
)

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 20

const maxCellWidth = 48

// errUnpairedValue refuses text edits that would replace unpaired surrogates
// with U+FFFD.
var errUnpairedValue = errors.New("value holds unpaired surrogates, set it with stf put or stf build")

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEditValue
	modeEditID
)

// Model is the bubbletea model of the editor.
type Model struct {
	doc      *document.Document
	pageSize int

	rows   []int // filtered row numbers
	page   int
	cursor int // position within the current page
	search string

	mode    mode
	input   textinput.Model
	editRow int
	initial string // input value when editing started

	status      string
	err         error
	pendingQuit bool
	quitting    bool
}

// New creates an editor over doc. A pageSize below 1 uses DefaultPageSize.
func New(doc *document.Document, pageSize int) *Model {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	ti := textinput.New()
	ti.CharLimit = 0
	ti.Width = 60

	m := &Model{
		doc:      doc,
		pageSize: pageSize,
		input:    ti,
		editRow:  -1,
	}
	m.refresh()
	return m
}

// Run starts the editor on the alternate screen and blocks until it quits.
func Run(doc *document.Document, pageSize int) error {
	p := tea.NewProgram(New(doc, pageSize), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.mode != modeBrowse {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if key.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.mode != modeBrowse {
		return m.updateInput(key)
	}
	return m.updateBrowse(key)
}

func (m *Model) updateBrowse(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := key.String()
	if k != "q" {
		m.pendingQuit = false
	}
	m.err = nil
	m.status = ""

	switch k {
	case "q":
		if m.doc.Dirty() && !m.pendingQuit {
			m.pendingQuit = true
			m.status = "unsaved changes, press q again to quit"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.pageRows())-1 {
			m.cursor++
		}

	case "n", "right", "pgdown":
		m.setPage(m.page + 1)

	case "p", "left", "pgup":
		m.setPage(m.page - 1)

	case "g", "home":
		m.setPage(0)

	case "G", "end":
		m.setPage(m.pageView().Pages - 1)

	case "/":
		return m, m.startInput(modeSearch, -1, "search: ", m.search)

	case "a":
		row := m.doc.Add()
		m.search = ""
		m.refresh()
		m.selectRow(row)
		m.status = fmt.Sprintf("added row %d", row+1)

	case "d":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.doc.Delete(row); err != nil {
			m.err = err
			return m, nil
		}
		m.refresh()
		m.status = fmt.Sprintf("deleted row %d", row+1)

	case "e", "enter":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		value := m.doc.Entries()[row].Value
		if !value.Valid() {
			m.err = errUnpairedValue
			return m, nil
		}
		return m, m.startInput(modeEditValue, row, "value: ", value.String())

	case "i":
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.startInput(modeEditID, row, "id: ", m.doc.Entries()[row].ID)

	case "u":
		if m.doc.Undo() {
			m.refresh()
			m.status = "undone"
		} else {
			m.status = "nothing to undo"
		}

	case "r":
		if m.doc.Redo() {
			m.refresh()
			m.status = "redone"
		} else {
			m.status = "nothing to redo"
		}

	case "s":
		if err := m.doc.Save(); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "saved " + m.doc.Path()
	}

	return m, nil
}

func (m *Model) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		if m.mode == modeSearch {
			m.search = ""
			m.refresh()
		}
		m.stopInput()
		return m, nil

	case tea.KeyEnter:
		m.commit()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if m.mode == modeSearch {
		m.search = m.input.Value()
		m.page, m.cursor = 0, 0
		m.refresh()
	}
	return m, cmd
}

func (m *Model) commit() {
	value := m.input.Value()
	row := m.editRow
	editedID := m.mode == modeEditID
	var err error

	if m.mode == modeSearch {
		m.search = value
		m.refresh()
		m.stopInput()
		return
	}
	if value == m.initial {
		m.stopInput()
		m.status = "no changes"
		return
	}

	switch m.mode {
	case modeEditValue:
		err = m.doc.SetValue(row, value)
	case modeEditID:
		err = m.doc.SetID(row, value)
	}

	if err != nil {
		// Stay in the input so the user can fix the id.
		m.err = err
		return
	}
	m.stopInput()
	m.refresh()
	m.selectRow(row)
	m.status = fmt.Sprintf("updated row %d", row+1)
	if editedID && wideID(value) {
		m.status += ", id characters above U+00FF will be truncated on save"
	}
}

func (m *Model) startInput(md mode, row int, prompt, value string) tea.Cmd {
	m.mode = md
	m.editRow = row
	m.input.Prompt = prompt
	m.initial = value
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopInput() {
	m.mode = modeBrowse
	m.editRow = -1
	m.initial = ""
	m.input.Blur()
	m.input.SetValue("")
}

// refresh recomputes the filtered rows and clamps page and cursor.
func (m *Model) refresh() {
	m.rows = m.doc.Filter(m.search)
	m.setPage(m.page)
}

func (m *Model) setPage(page int) {
	view := document.Paginate(m.rows, page, m.pageSize)
	if view.Page != m.page {
		m.cursor = 0
	}
	m.page = view.Page
	if m.cursor >= len(view.Rows) {
		m.cursor = len(view.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) pageView() document.PageView {
	return document.Paginate(m.rows, m.page, m.pageSize)
}

func (m *Model) pageRows() []int {
	return m.pageView().Rows
}

// selected returns the document row under the cursor.
func (m *Model) selected() (int, bool) {
	rows := m.pageRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return 0, false
	}
	return rows[m.cursor], true
}

// selectRow moves the page and cursor onto row when it is visible.
func (m *Model) selectRow(row int) {
	for i, r := range m.rows {
		if r == row {
			m.page = i / m.pageSize
			m.cursor = i % m.pageSize
			return
		}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("STF Editor"))
	b.WriteString(" ")
	path := m.doc.Path()
	if path == "" {
		path = "(unsaved)"
	}
	b.WriteString(path)
	if m.doc.Dirty() {
		b.WriteString(" ")
		b.WriteString(dirtyStyle.Render("[modified]"))
	}
	b.WriteString("\n\n")

	view := m.pageView()
	entries := m.doc.Entries()

	b.WriteString(headerStyle.Render(fmt.Sprintf("%6s  %-*s  %s", "#", 24, "ID", "Value")))
	b.WriteString("\n")
	for i, row := range view.Rows {
		e := entries[row]
		num := fmt.Sprintf("%6d", row+1)
		id := fmt.Sprintf("%-24s", cell(e.ID, 24))
		value := cell(e.Value.String(), maxCellWidth)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(num + "  " + id + "  " + value))
		} else {
			b.WriteString(num + "  " + idStyle.Render(id) + "  " + value)
		}
		b.WriteString("\n")
	}
	if len(view.Rows) == 0 {
		b.WriteString(helpStyle.Render("  no rows"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("page %d/%d • %d rows", view.Page+1, view.Pages, view.Total)
	if m.search != "" {
		summary += fmt.Sprintf(" matching %q", m.search)
	}
	b.WriteString(helpStyle.Render(summary))
	b.WriteString("\n")

	if m.mode != modeBrowse {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + errorText(m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == modeBrowse {
		b.WriteString(helpStyle.Render("↑/↓ move • n/p page • g/G first/last • / search • a add • d delete • e edit value • i edit id • u undo • r redo • s save • q quit"))
	} else {
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	}

	return b.String()
}

func errorText(err error) string {
	if errors.Is(err, document.ErrNoPath) {
		return "no file to save to"
	}
	return err.Error()
}

// cell makes s printable on one line and cuts it to width runes.
func cell(s string, width int) string {
	s = strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(s)
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

func wideID(id string) bool {
	for _, r := range id {
		if r > 0xFF {
			return true
		}
	}
	return false
}

var _ tea.Model = (*Model)(nil)
