package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
	"github.com/pfrederiksen/datebook/internal/notifier"
	"github.com/pfrederiksen/datebook/internal/store"
)

// ViewMode selects which query the list shows.
type ViewMode int

const (
	ViewUpcoming ViewMode = iota
	ViewAll
)

type mode int

const (
	modeList mode = iota
	modeDetail
	modeForm
	modeConfirm
	modeFilter
)

// Options configures the interactive view.
type Options struct {
	HorizonDays   int
	ConfirmDelete bool
	Watch         bool
	DataFile      string
	Color         bool

	// Today returns the reference day; nil means event.Today.
	Today func() event.Date
}

// fileChangedMsg is sent when the data file was modified outside the program.
type fileChangedMsg struct{}

// Model is the bubbletea model for datebook.
type Model struct {
	store *store.Store
	opts  Options

	view    ViewMode
	mode    mode
	today   event.Date
	entries []event.Entry
	cursor  int

	form        *eventForm
	filterInput textinput.Model
	filterQuery string

	status string
	err    string

	width  int
	height int
	styles Styles
}

// NewModel creates the model and runs the first query.
func NewModel(s *store.Store, opts Options) *Model {
	if opts.Today == nil {
		opts.Today = event.Today
	}
	if opts.HorizonDays < 0 {
		opts.HorizonDays = event.DefaultHorizonDays
	}

	fi := textinput.New()
	fi.Placeholder = "Filter..."
	fi.Prompt = "/"
	fi.CharLimit = 100
	fi.Width = 40

	m := &Model{
		store:       s,
		opts:        opts,
		filterInput: fi,
		styles:      DefaultStyles(opts.Color),
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// refresh re-runs the active query with a fresh today and reapplies the filter.
func (m *Model) refresh() {
	m.today = m.opts.Today()
	var entries []event.Entry
	if m.view == ViewUpcoming {
		entries = m.store.Upcoming(m.today, m.opts.HorizonDays)
	} else {
		entries = m.store.AllEvents(m.today)
	}
	m.entries = event.Search(entries, m.filterQuery)

	if m.cursor >= len(m.entries) {
		m.cursor = max(0, len(m.entries)-1)
	}
}

func (m *Model) selected() (event.Entry, bool) {
	if len(m.entries) == 0 {
		return event.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.err = ""
}

func (m *Model) setError(err error) {
	m.err = err.Error()
	m.status = ""
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case fileChangedMsg:
		m.reloadExternal()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeForm:
			return m, m.updateForm(msg)
		case modeConfirm:
			return m, m.updateConfirm(msg)
		case modeFilter:
			return m, m.updateFilter(msg)
		case modeDetail:
			return m, m.updateDetail(msg)
		default:
			return m, m.updateList(msg)
		}
	}

	if m.mode == modeForm && m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "tab":
		if m.view == ViewUpcoming {
			m.view = ViewAll
		} else {
			m.view = ViewUpcoming
		}
		m.cursor = 0
		m.refresh()
	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.entries)-1)
	case "enter":
		if _, ok := m.selected(); ok {
			m.mode = modeDetail
		}
	case "a":
		return m.openForm(nil)
	case "e":
		if e, ok := m.selected(); ok {
			return m.openForm(&e)
		}
	case "d":
		return m.requestDelete()
	case "/":
		m.mode = modeFilter
		m.filterInput.SetValue(m.filterQuery)
		return m.filterInput.Focus()
	case "esc":
		if m.filterQuery != "" {
			m.filterQuery = ""
			m.refresh()
		}
	case "r":
		m.reload("Reloaded")
	}
	return nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc", "enter":
		m.mode = modeList
	case "e":
		if e, ok := m.selected(); ok {
			return m.openForm(&e)
		}
	case "d":
		return m.requestDelete()
	}
	return nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeList
		m.deleteSelected()
	case "n", "N", "esc", "q":
		m.mode = modeList
		m.setStatus("Delete cancelled")
	}
	return nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.mode = modeList
		m.filterInput.Blur()
		return nil
	case "esc":
		m.mode = modeList
		m.filterInput.Blur()
		m.filterQuery = ""
		m.refresh()
		return nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	m.cursor = 0
	m.refresh()
	return cmd
}

func (m *Model) openForm(e *event.Entry) tea.Cmd {
	if e == nil {
		m.form = newEventForm(m.today, m.width)
	} else {
		m.form = newEditForm(*e, m.width)
	}
	m.mode = modeForm
	return textinput.Blink
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = modeList
		return nil
	case "tab":
		return m.form.next()
	case "shift+tab":
		return m.form.prev()
	case "ctrl+s":
		m.submitForm()
		return nil
	case "enter":
		if m.form.focus != fieldDetail {
			m.submitForm()
			return nil
		}
	}
	return m.form.update(msg)
}

// submitForm saves the form. Validation errors keep the form open with its
// text intact; a stale edit target closes it and refreshes the list.
func (m *Model) submitForm() {
	f := m.form
	name, detail, date, err := f.values(m.today)
	if err != nil {
		f.err = err.Error()
		return
	}

	var rec event.Record
	if f.editing {
		rec, err = m.store.EditAndMove(f.originDate, f.originPos, name, detail, date)
	} else {
		rec, err = m.store.Add(date, name, detail)
	}

	switch {
	case err == nil:
		m.form = nil
		m.mode = modeList
		verb := "Added"
		if f.editing {
			verb = "Updated"
		}
		m.refresh()
		m.selectRecord(date, rec)
		m.setStatus(fmt.Sprintf("%s %q on %s", verb, rec.Name, date))
	case errors.Is(err, event.ErrValidation):
		f.err = err.Error()
	case errors.Is(err, event.ErrNotFound):
		m.form = nil
		m.mode = modeList
		m.refresh()
		m.setError(errors.New("event changed before saving; list refreshed"))
	default:
		f.err = err.Error()
		logger.Error("saving event from form", logger.Fields{"date": date.String()}, err)
	}
}

// selectRecord moves the cursor to the last entry matching date and rec, which
// is where a newly added or edited record lands.
func (m *Model) selectRecord(date event.Date, rec event.Record) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Date == date && m.entries[i].Record == rec {
			m.cursor = i
			return
		}
	}
}

func (m *Model) requestDelete() tea.Cmd {
	if _, ok := m.selected(); !ok {
		return nil
	}
	if m.opts.ConfirmDelete {
		m.mode = modeConfirm
		return nil
	}
	m.mode = modeList
	m.deleteSelected()
	return nil
}

func (m *Model) deleteSelected() {
	e, ok := m.selected()
	if !ok {
		return
	}
	err := m.store.DeleteAt(e.Date, e.Position)
	m.refresh()
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			m.setError(errors.New("event changed before deleting; list refreshed"))
			return
		}
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("Deleted %q", e.Name))
}

func (m *Model) reload(okStatus string) {
	if err := m.store.Reload(); err != nil {
		m.setError(fmt.Errorf("reload failed, keeping current events: %w", err))
		return
	}
	m.refresh()
	m.setStatus(okStatus)
}

// reloadExternal picks up a change made outside the program. Our own saves
// also reach the watcher; those leave the calendar unchanged and stay quiet.
func (m *Model) reloadExternal() {
	before := m.store.Buckets()
	if err := m.store.Reload(); err != nil {
		m.setError(fmt.Errorf("reload failed, keeping current events: %w", err))
		return
	}
	m.refresh()
	if !before.Equal(m.store.Buckets()) {
		m.setStatus("Data file changed, reloaded")
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.form.view(m.styles, m.width))
	case modeDetail:
		b.WriteString(m.viewDetail())
	case modeConfirm:
		b.WriteString(m.viewConfirm())
	default:
		b.WriteString(m.viewList())
	}

	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m *Model) viewHeader() string {
	st := m.styles
	upcoming := fmt.Sprintf("Upcoming (%d days)", m.opts.HorizonDays)
	tabs := []string{st.Tab.Render(upcoming), st.Tab.Render("All events")}
	if m.view == ViewUpcoming {
		tabs[0] = st.TabOn.Render(upcoming)
	} else {
		tabs[1] = st.TabOn.Render("All events")
	}
	summary := notifier.FormatDigestSummary(m.today, m.store.Upcoming(m.today, m.opts.HorizonDays))
	title := st.Title.Render("datebook") + "  " + m.today.String() + "  " + st.Help.Render(summary)
	return title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tabs[0], " ", tabs[1])
}

func (m *Model) viewList() string {
	st := m.styles
	if len(m.entries) == 0 {
		switch {
		case m.filterQuery != "":
			return st.Help.Render(fmt.Sprintf("No events match %q.", m.filterQuery)) + "\n"
		case m.view == ViewUpcoming:
			return st.Help.Render("No upcoming events. Press a to add one.") + "\n"
		default:
			return st.Help.Render("No events yet. Press a to add one.") + "\n"
		}
	}

	var lines []string
	selectedLine := 0
	var prev event.Date
	for i, e := range m.entries {
		if i == 0 || e.Date != prev {
			heading := st.Heading
			if e.Date == m.today {
				heading = st.Today
			}
			when := notifier.RelativeDay(m.today, e.Date)
			lines = append(lines, heading.Render(e.Date.String())+" "+st.Help.Render("("+when+")"))
			prev = e.Date
		}

		text := "  " + e.Name
		if e.Detail != "" {
			text += " …"
		}
		var line string
		switch {
		case i == m.cursor:
			line = st.Selected.Render("> " + strings.TrimPrefix(text, "  "))
			selectedLine = len(lines)
		case e.Expired:
			line = st.Expired.Render(text)
		default:
			line = st.Normal.Render(text)
		}
		if e.Expired {
			line += " " + st.Help.Render("[expired]")
		}
		lines = append(lines, line)
	}

	return strings.Join(visibleWindow(lines, selectedLine, m.listHeight()), "\n") + "\n"
}

// listHeight is the number of list lines that fit between header and footer.
func (m *Model) listHeight() int {
	if m.height == 0 {
		return 0
	}
	return max(3, m.height-7)
}

// visibleWindow returns at most height lines around focus. Zero height
// returns everything.
func visibleWindow(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := focus - height/2
	start = max(0, min(start, len(lines)-height))
	return lines[start : start+height]
}

func (m *Model) viewDetail() string {
	e, ok := m.selected()
	if !ok {
		return ""
	}
	st := m.styles
	width := 60
	if m.width > 10 {
		width = m.width - 8
	}

	var b strings.Builder
	b.WriteString(st.Title.Render(e.Name) + "\n")
	b.WriteString(fmt.Sprintf("%s (%s)", e.Date, notifier.RelativeDay(m.today, e.Date)))
	if e.Expired {
		b.WriteString(" " + st.Help.Render("[expired]"))
	}
	b.WriteString("\n\n")
	if e.Detail == "" {
		b.WriteString(st.Help.Render("No details."))
	} else {
		b.WriteString(wordwrap.String(e.Detail, width))
	}
	return st.Box.Render(b.String()) + "\n"
}

func (m *Model) viewConfirm() string {
	e, ok := m.selected()
	if !ok {
		return ""
	}
	st := m.styles
	content := st.Title.Render(fmt.Sprintf("Delete %q on %s?", e.Name, e.Date)) + "\n\n" +
		st.Error.Render("[y]") + " Yes  " + st.Help.Render("[n/esc]") + " No"
	return st.Box.Render(content) + "\n"
}

func (m *Model) viewFooter() string {
	st := m.styles
	var parts []string
	if m.mode == modeFilter {
		parts = append(parts, m.filterInput.View())
	} else if m.filterQuery != "" {
		parts = append(parts, st.Help.Render("filter: "+m.filterQuery+" (esc to clear)"))
	}
	if m.err != "" {
		parts = append(parts, st.Error.Render(m.err))
	} else if m.status != "" {
		parts = append(parts, st.Status.Render(m.status))
	}

	var help string
	switch m.mode {
	case modeList:
		help = "tab:view  j/k:move  enter:open  a:add  e:edit  d:delete  /:filter  r:reload  q:quit"
	case modeDetail:
		help = "e:edit  d:delete  esc:back"
	case modeFilter:
		help = "type to filter  enter:confirm  esc:clear"
	}
	if help != "" {
		parts = append(parts, st.Help.Render(help))
	}
	return strings.Join(parts, "\n")
}
