package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pfrederiksen/datebook/internal/event"
)

type formField int

const (
	fieldName formField = iota
	fieldDate
	fieldDetail
	fieldCount
)

// eventForm edits the name, date and detail of one event. When editing is
// true, origin identifies the record being replaced.
type eventForm struct {
	name   textinput.Model
	date   textinput.Model
	detail textarea.Model
	focus  formField
	err    string

	editing    bool
	originDate event.Date
	originPos  int
}

func newEventForm(date event.Date, width int) *eventForm {
	name := textinput.New()
	name.Placeholder = "Event name"
	name.CharLimit = 200
	name.Width = max(20, width-12)

	d := textinput.New()
	d.Placeholder = "YYYY-MM-DD, today, tomorrow, +N"
	d.CharLimit = 20
	d.Width = 32
	d.SetValue(date.String())

	detail := textarea.New()
	detail.Placeholder = "Details (optional)"
	detail.ShowLineNumbers = false
	detail.CharLimit = 0
	detail.SetWidth(max(20, width-12))
	detail.SetHeight(5)

	f := &eventForm{name: name, date: d, detail: detail}
	f.name.Focus()
	return f
}

func newEditForm(e event.Entry, width int) *eventForm {
	f := newEventForm(e.Date, width)
	f.name.SetValue(e.Name)
	f.detail.SetValue(e.Detail)
	f.editing = true
	f.originDate = e.Date
	f.originPos = e.Position
	return f
}

func (f *eventForm) setFocus(field formField) tea.Cmd {
	f.focus = field
	f.name.Blur()
	f.date.Blur()
	f.detail.Blur()
	switch field {
	case fieldName:
		return f.name.Focus()
	case fieldDate:
		return f.date.Focus()
	default:
		return f.detail.Focus()
	}
}

func (f *eventForm) next() tea.Cmd {
	return f.setFocus((f.focus + 1) % fieldCount)
}

func (f *eventForm) prev() tea.Cmd {
	return f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

// update forwards msg to the focused input.
func (f *eventForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldDate:
		f.date, cmd = f.date.Update(msg)
	default:
		f.detail, cmd = f.detail.Update(msg)
	}
	return cmd
}

// values returns the entered name and detail and the parsed date.
func (f *eventForm) values(today event.Date) (string, string, event.Date, error) {
	date, err := event.ParseDateRelative(f.date.Value(), today)
	if err != nil {
		return "", "", event.Date{}, err
	}
	return f.name.Value(), f.detail.Value(), date, nil
}

func (f *eventForm) view(st Styles, width int) string {
	var b strings.Builder
	title := "Add event"
	if f.editing {
		title = "Edit event"
	}
	b.WriteString(st.Title.Render(title) + "\n\n")
	b.WriteString(st.Label.Render("Name") + "\n" + f.name.View() + "\n\n")
	b.WriteString(st.Label.Render("Date") + "\n" + f.date.View() + "\n\n")
	b.WriteString(st.Label.Render("Detail") + "\n" + f.detail.View() + "\n")
	if f.err != "" {
		b.WriteString("\n" + st.Error.Render(f.err) + "\n")
	}
	b.WriteString("\n" + st.Help.Render("tab:next field  ctrl+s:save  esc:cancel"))

	box := st.Box
	if width > 4 {
		box = box.Width(width - 4)
	}
	return box.Render(b.String())
}
