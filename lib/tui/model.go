// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/saorsa-labs/x0x-go/lib/ref"
	"github.com/saorsa-labs/x0x-go/lib/replica"
	"github.com/saorsa-labs/x0x-go/lib/tasklist"
)

// FocusRegion identifies where keyboard input routes.
type FocusRegion int

const (
	// FocusList means navigation and mutation keys act on the task
	// table.
	FocusList FocusRegion = iota
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
	// FocusAdd means keystrokes go to the new-task title input.
	FocusAdd
)

// refreshMsg is sent whenever the engine's state changed — a local
// mutation or a remote delta. The model re-reads the ordered
// snapshot; it never tracks deltas itself.
type refreshMsg struct{}

// mutationResultMsg is sent when an engine mutation completes. The
// state change itself arrives separately as a refreshMsg.
type mutationResultMsg struct {
	err error
}

// noticeFadeMsg clears the status-bar notice after a delay.
type noticeFadeMsg struct{}

const noticeFadeDelay = 4 * time.Second

// row is one visible task plus its filter match, kept together so
// the renderer can highlight matched runes.
type row struct {
	task  tasklist.TaskSnapshot
	match FuzzyResult
}

// Model is the bubbletea model for one replica's task list. The
// engine is the single source of truth: every keypress turns into an
// engine call, and the table re-reads the engine on each refresh.
type Model struct {
	engine  *replica.Engine
	theme   Theme
	keys    KeyMap
	updates <-chan struct{}
	slab    *util.Slab

	width  int
	height int
	ready  bool

	rows     []row
	cursor   int
	showDone bool

	focus  FocusRegion
	filter textinput.Model
	input  textinput.Model

	notice string
}

// NewModel builds a model over a running engine and subscribes to
// its change notifications.
func NewModel(engine *replica.Engine) Model {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter"

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "task title"

	m := Model{
		engine:  engine,
		theme:   DefaultTheme(),
		keys:    DefaultKeyMap,
		updates: engine.Watch(),
		slab:    NewSlab(),
		filter:  filter,
		input:   input,
	}
	m.reload()
	return m
}

// Init starts the engine-change subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitRefresh(m.updates), textinput.Blink)
}

// waitRefresh blocks on the engine's coalescing change channel and
// converts each signal into a refreshMsg. Re-armed after every
// delivery; a closed channel ends the subscription.
func waitRefresh(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return refreshMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case refreshMsg:
		m.reload()
		return m, waitRefresh(m.updates)

	case mutationResultMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
				return noticeFadeMsg{}
			})
		}
		return m, nil

	case noticeFadeMsg:
		m.notice = ""
		return m, nil

	case tea.KeyMsg:
		switch m.focus {
		case FocusFilter:
			return m.updateFilter(msg)
		case FocusAdd:
			return m.updateAdd(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.filter.SetValue("")
		m.filter.Blur()
		m.focus = FocusList
		m.reload()
		return m, nil
	case tea.KeyEnter:
		m.filter.Blur()
		m.focus = FocusList
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.reload()
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.input.SetValue("")
		m.input.Blur()
		m.focus = FocusList
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.input.Blur()
		m.focus = FocusList
		if title == "" {
			return m, nil
		}
		engine := m.engine
		return m, func() tea.Msg {
			_, err := engine.AddTask(context.Background(), title, "")
			return mutationResultMsg{err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}

	case key.Matches(msg, m.keys.Add):
		m.focus = FocusAdd
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.focus = FocusFilter
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.FilterClear):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.reload()
		}

	case key.Matches(msg, m.keys.ToggleDone):
		m.showDone = !m.showDone
		m.reload()

	case key.Matches(msg, m.keys.Claim):
		return m, m.mutateCurrent(m.engine.ClaimTask)
	case key.Matches(msg, m.keys.Complete):
		return m, m.mutateCurrent(m.engine.CompleteTask)
	case key.Matches(msg, m.keys.Remove):
		return m, m.mutateCurrent(m.engine.RemoveTask)
	}
	return m, nil
}

// mutateCurrent runs an engine mutation against the task under the
// cursor as an asynchronous command, so a slow disk or transport
// never stalls the render loop.
func (m Model) mutateCurrent(fn func(context.Context, ref.TaskID) error) tea.Cmd {
	if m.cursor >= len(m.rows) {
		return nil
	}
	id := m.rows[m.cursor].task.ID
	return func() tea.Msg {
		return mutationResultMsg{err: fn(context.Background(), id)}
	}
}

// reload re-reads the engine's ordered snapshot and applies the done
// filter and fuzzy filter. The cursor is clamped rather than reset so
// remote deltas don't yank the selection around.
func (m *Model) reload() {
	pattern := []rune(m.filter.Value())
	tasks := m.engine.TasksOrdered()

	m.rows = m.rows[:0]
	for _, task := range tasks {
		if task.State == tasklist.StateDone && !m.showDone {
			continue
		}
		r := row{task: task}
		if len(pattern) > 0 {
			r.match = FuzzyMatch(ansi.Strip(task.Title), pattern, m.slab)
			if r.match.Score == 0 {
				continue
			}
		}
		m.rows = append(m.rows, r)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.focus == FocusFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	if m.focus == FocusAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	tableHeight := m.tableHeight()
	b.WriteString(m.renderTable(tableHeight))
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// tableHeight splits the vertical space: the table gets what remains
// after the header, status bar, and a detail pane of up to a third of
// the screen.
func (m Model) tableHeight() int {
	detail := m.height / 3
	h := m.height - detail - 4
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) renderHeader() string {
	name := ansi.Strip(m.engine.Name())
	if name == "" {
		name = m.engine.ListID().String()[:12]
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Header).Render(name)
	count := lipgloss.NewStyle().Foreground(m.theme.FaintText).
		Render(fmt.Sprintf("  %d tasks", len(m.rows)))
	return title + count
}

func (m Model) renderTable(height int) string {
	if len(m.rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("  no tasks")
		return empty + strings.Repeat("\n", height)
	}

	// Scroll window keeps the cursor visible.
	top := 0
	if m.cursor >= height {
		top = m.cursor - height + 1
	}

	var b strings.Builder
	for i := top; i < len(m.rows) && i < top+height; i++ {
		b.WriteString(m.renderRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	for i := len(m.rows) - top; i < height; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(r row, selected bool) string {
	task := r.task

	base := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	marker := "[ ]"
	switch task.State {
	case tasklist.StateClaimed:
		marker = "[~]"
		base = base.Foreground(m.theme.Claimed)
	case tasklist.StateDone:
		marker = "[x]"
		base = base.Foreground(m.theme.Done)
	}
	if task.Priority == tasklist.PriorityUrgent {
		base = base.Foreground(m.theme.Urgent)
	}
	if selected {
		base = base.Background(m.theme.Selected).Foreground(m.theme.SelectedText)
	}

	title := m.renderTitle(ansi.Strip(task.Title), r.match.Positions, base)
	line := " " + marker + " " + title
	if task.Priority != tasklist.PriorityNone {
		line += base.Faint(true).Render("  " + task.Priority.String())
	}
	if !task.Assignee.IsZero() {
		line += base.Faint(true).Render("  @" + task.Assignee.String()[:8])
	}
	return ansi.Truncate(line, m.width, "…")
}

// renderTitle styles the title with filter match positions
// highlighted. Positions index runes of the matched text.
func (m Model) renderTitle(title string, positions []int, base lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(title)
	}
	matched := make(map[int]bool, len(positions))
	for _, p := range positions {
		matched[p] = true
	}
	hit := base.Foreground(m.theme.MatchHit).Bold(true)

	var b strings.Builder
	for i, r := range []rune(title) {
		if matched[i] {
			b.WriteString(hit.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}

// renderDetail shows the selected task's description, markdown
// rendered, under a top border.
func (m Model) renderDetail() string {
	border := lipgloss.NewStyle().Foreground(m.theme.Border).
		Render(strings.Repeat("─", max(m.width, 1)))
	if m.cursor >= len(m.rows) {
		return border
	}
	description := ansi.Strip(m.rows[m.cursor].task.Description)
	if description == "" {
		return border
	}
	return border + "\n" + RenderMarkdown(description, m.theme, m.width-2)
}

func (m Model) renderStatus() string {
	if m.notice != "" {
		return lipgloss.NewStyle().Foreground(m.theme.Urgent).Render(" " + m.notice)
	}
	help := " a add · c claim · x complete · d remove · / filter · D done · q quit"
	return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(help)
}
