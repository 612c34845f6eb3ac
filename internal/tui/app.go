// Package tui is the terminal project browser. It drives the same
// pipeline a map page would: filter controls feed the input controller,
// the reconciliation engine draws on an in-memory map canvas, and the list,
// sidebar and summary views render the latest result set.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stwalsh4118/projectmap/internal/geo"
	"github.com/stwalsh4118/projectmap/internal/input"
	"github.com/stwalsh4118/projectmap/internal/mapview"
	"github.com/stwalsh4118/projectmap/internal/reconcile"
	"github.com/stwalsh4118/projectmap/internal/views"
)

// Session is the pipeline the browser drives.
type Session struct {
	Engine      *reconcile.Engine
	Canvas      *mapview.Canvas
	Controller  *input.Controller
	List        *views.ListView
	Summary     *views.SummaryView
	Sidebar     *views.SidebarListView
	Suggestions *views.SuggestionView
}

// Validate checks that every component is set.
func (s *Session) Validate() error {
	if s == nil {
		return errors.New("session is nil")
	}
	if s.Engine == nil || s.Canvas == nil || s.Controller == nil {
		return errors.New("session requires engine, canvas and controller")
	}
	if s.List == nil || s.Summary == nil || s.Sidebar == nil || s.Suggestions == nil {
		return errors.New("session requires every view")
	}
	return nil
}

// Tab identifies a browser tab.
type Tab int

const (
	TabMap Tab = iota
	TabList
	TabSidebar
	TabSummary
	TabFilters
	tabCount
)

var tabNames = [tabCount]string{"Map", "List", "Nearby", "Summary", "Filters"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return "unknown"
	}
	return tabNames[t]
}

type editMode int

const (
	editNone editMode = iota
	editKeyword
	editSidebar
)

// refreshMsg asks for a redraw after the pipeline changed state.
type refreshMsg struct{}

// initDoneMsg reports the end of the initial lookups and query.
type initDoneMsg struct{ err error }

// App is the bubbletea model of the browser.
type App struct {
	ctx     context.Context
	session *Session
	styles  Styles
	keys    KeyMap
	help    help.Model

	tab     Tab
	cursors [tabCount]int
	edit    editMode

	keyword       textinput.Model
	sidebarFilter textinput.Model
	suggestion    int

	width   int
	height  int
	initErr error
	lastErr error
}

var _ tea.Model = (*App)(nil)

// NewApp creates the browser over a session.
func NewApp(ctx context.Context, session *Session) (*App, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	kw := textinput.New()
	kw.Placeholder = "Keyword (3+ characters)"
	kw.CharLimit = 200
	kw.Width = 40

	sf := textinput.New()
	sf.Placeholder = "Filter by name or type"
	sf.CharLimit = 100
	sf.Width = 30

	a := &App{
		ctx:           ctx,
		session:       session,
		styles:        DefaultStyles(),
		keys:          DefaultKeyMap(),
		help:          help.New(),
		keyword:       kw,
		sidebarFilter: sf,
		width:         100,
		height:        30,
	}
	// "View on map" scrolls the map into view.
	session.List.OnScroll(func() { a.tab = TabMap })
	return a, nil
}

// Tab returns the active tab.
func (a *App) Tab() Tab {
	return a.tab
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	ctrl := a.session.Controller
	ctx := a.ctx
	return tea.Batch(
		tea.SetWindowTitle("projectmap"),
		func() tea.Msg {
			return initDoneMsg{err: ctrl.Init(ctx)}
		},
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case refreshMsg:
		a.clampCursors()
		return a, nil

	case initDoneMsg:
		a.initErr = msg.err
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.edit != editNone {
			return a.updateEditing(msg)
		}
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := a.session
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.NextTab):
		a.tab = (a.tab + 1) % tabCount

	case key.Matches(msg, a.keys.PrevTab):
		a.tab = (a.tab + tabCount - 1) % tabCount

	case key.Matches(msg, a.keys.Keyword):
		a.edit = editKeyword
		a.suggestion = 0
		return a, a.keyword.Focus()

	case key.Matches(msg, a.keys.Filter) && a.tab == TabSidebar:
		a.edit = editSidebar
		return a, a.sidebarFilter.Focus()

	case key.Matches(msg, a.keys.Back):
		s.Suggestions.Dismiss()
		s.Canvas.ClickBackground()

	case key.Matches(msg, a.keys.Details):
		if id := s.Engine.ActiveID(); id != "" {
			_, err := s.Engine.ToggleDetails(id)
			a.lastErr = err
		}

	case key.Matches(msg, a.keys.Reset):
		a.keyword.SetValue("")
		s.Controller.Reset()

	case key.Matches(msg, a.keys.Up):
		if a.cursors[a.tab] > 0 {
			a.cursors[a.tab]--
		}

	case key.Matches(msg, a.keys.Down):
		if a.cursors[a.tab] < a.rowCount(a.tab)-1 {
			a.cursors[a.tab]++
		}

	case key.Matches(msg, a.keys.Select), key.Matches(msg, a.keys.Toggle):
		a.lastErr = a.activate()
	}
	return a, nil
}

func (a *App) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := a.session
	switch a.edit {
	case editKeyword:
		switch {
		case key.Matches(msg, a.keys.Back):
			a.keyword.Blur()
			a.edit = editNone
			s.Suggestions.Dismiss()
			return a, nil
		case key.Matches(msg, a.keys.Select):
			a.keyword.Blur()
			a.edit = editNone
			if items := s.Suggestions.Items(); a.suggestion < len(items) {
				a.lastErr = s.Suggestions.Choose(items[a.suggestion].ProjectID)
				a.tab = TabMap
			}
			return a, nil
		case msg.Type == tea.KeyDown:
			if a.suggestion < len(s.Suggestions.Items())-1 {
				a.suggestion++
			}
			return a, nil
		case msg.Type == tea.KeyUp:
			if a.suggestion > 0 {
				a.suggestion--
			}
			return a, nil
		}

		before := a.keyword.Value()
		var cmd tea.Cmd
		a.keyword, cmd = a.keyword.Update(msg)
		if a.keyword.Value() != before {
			a.suggestion = 0
			s.Controller.KeywordChanged(a.keyword.Value())
		}
		return a, cmd

	case editSidebar:
		if key.Matches(msg, a.keys.Back) || key.Matches(msg, a.keys.Select) {
			a.sidebarFilter.Blur()
			a.edit = editNone
			return a, nil
		}
		var cmd tea.Cmd
		a.sidebarFilter, cmd = a.sidebarFilter.Update(msg)
		s.Sidebar.SetFilter(a.sidebarFilter.Value())
		a.cursors[TabSidebar] = 0
		return a, cmd
	}
	return a, nil
}

// activate runs the select action of the row under the cursor.
func (a *App) activate() error {
	s := a.session
	cur := a.cursors[a.tab]

	switch a.tab {
	case TabMap:
		valid := s.Engine.Snapshot().Partition.Valid
		if cur >= len(valid) {
			return nil
		}
		ms, ok := s.Engine.MarkerState(valid[cur].Project.ID())
		if !ok {
			return nil
		}
		s.Canvas.ClickMarker(ms.Marker)
		return nil

	case TabList:
		cards := s.List.Cards()
		if cur >= len(cards) {
			return nil
		}
		return s.List.ViewOnMap(cards[cur].ProjectID)

	case TabSidebar:
		entries := s.Sidebar.Entries()
		if cur >= len(entries) {
			return nil
		}
		if err := s.Sidebar.Select(entries[cur].ProjectID); err != nil {
			return err
		}
		a.tab = TabMap
		return nil

	case TabFilters:
		rows := a.filterRows()
		if cur >= len(rows) {
			return nil
		}
		return rows[cur].activate()
	}
	return nil
}

func (a *App) rowCount(t Tab) int {
	s := a.session
	switch t {
	case TabMap:
		return len(s.Engine.Snapshot().Partition.Valid)
	case TabList:
		return len(s.List.Cards())
	case TabSidebar:
		return len(s.Sidebar.Entries())
	case TabFilters:
		return len(a.filterRows())
	}
	return 0
}

func (a *App) clampCursors() {
	for t := Tab(0); t < tabCount; t++ {
		n := a.rowCount(t)
		if a.cursors[t] >= n {
			a.cursors[t] = max(n-1, 0)
		}
	}
}

// filterRow is one line of the filters tab.
type filterRow struct {
	label    string
	header   bool
	activate func() error
}

func (a *App) filterRows() []filterRow {
	c := a.session.Controller
	criteria := a.session.Engine.Snapshot().Criteria
	noop := func() error { return nil }

	rows := []filterRow{{label: "Location", header: true, activate: noop}}
	if c.LocationsDisabled() {
		rows = append(rows, filterRow{label: "  (unavailable)", activate: noop})
	}
	for _, o := range c.Locations() {
		mark := "( )"
		if o.Key() == criteria.LocationID {
			mark = "(•)"
		}
		id := o.Key()
		rows = append(rows, filterRow{
			label:    "  " + mark + " " + o.Label(),
			activate: func() error { return c.SelectLocation(id) },
		})
	}

	rows = append(rows, multiSelectRows(c.PropertyTypes())...)
	rows = append(rows, multiSelectRows(c.BuildingStatuses())...)
	return rows
}

func multiSelectRows(m *input.MultiSelect) []filterRow {
	noop := func() error { return nil }
	rows := []filterRow{{label: m.Label(), header: true, activate: noop}}
	if m.Disabled() {
		return append(rows, filterRow{label: "  (unavailable)", activate: noop})
	}

	all := m.AllChecked()
	rows = append(rows, filterRow{
		label:    "  " + checkbox(all) + " Select all",
		activate: func() error { m.SetAll(!all); return nil },
	})
	for _, o := range m.Options() {
		id := o.Key()
		on := m.Checked(id)
		rows = append(rows, filterRow{
			label:    "  " + checkbox(on) + " " + o.Label(),
			activate: func() error { return m.Toggle(id, !on) },
		})
	}
	return rows
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	b.WriteString(a.renderKeyword())
	b.WriteString("\n\n")

	switch a.tab {
	case TabMap:
		b.WriteString(a.renderMapTab())
	case TabList:
		b.WriteString(a.renderList())
	case TabSidebar:
		b.WriteString(a.renderSidebar())
	case TabSummary:
		b.WriteString(a.renderSummary())
	case TabFilters:
		b.WriteString(a.renderFilters())
	}

	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) renderTabs() string {
	parts := make([]string, 0, tabCount+1)
	parts = append(parts, a.styles.Title.Render("projectmap"))
	for t := Tab(0); t < tabCount; t++ {
		style := a.styles.Tab
		if t == a.tab {
			style = a.styles.ActiveTab
		}
		parts = append(parts, style.Render(t.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a *App) renderKeyword() string {
	line := a.styles.Muted.Render("Search: ") + a.keyword.View()

	s := a.session.Suggestions
	switch s.State() {
	case views.SuggestionsEmpty:
		return line + "\n" + a.styles.Dropdown.Render(views.NoResultsMessage)
	case views.SuggestionsShown:
		var rows []string
		for i, item := range s.Items() {
			row := item.Title + a.styles.Muted.Render("  "+item.Subtitle)
			if a.edit == editKeyword && i == a.suggestion {
				row = a.styles.Cursor.Render("> ") + row
			} else {
				row = "  " + row
			}
			rows = append(rows, row)
		}
		return line + "\n" + a.styles.Dropdown.Render(strings.Join(rows, "\n"))
	}
	return line
}

func (a *App) renderMapTab() string {
	s := a.session
	var active mapview.MarkerHandle
	if ms, ok := s.Engine.MarkerState(s.Engine.ActiveID()); ok {
		active = ms.Marker
	}

	mapHeight := max(a.height-16, 8)
	mapWidth := max(a.width/2, 20)
	grid := a.styles.Map.Render(renderMap(s.Canvas, active, mapWidth, mapHeight))

	var side []string
	for _, p := range s.Canvas.OpenPopups(mapview.PopupDetail) {
		side = append(side, a.styles.Popup.Render(strings.Join(popupLines(p.Content), "\n")))
	}

	valid := s.Engine.Snapshot().Partition.Valid
	compact := map[string]bool{}
	for _, p := range s.Canvas.OpenPopups(mapview.PopupCompact) {
		compact[p.Content.ProjectID] = true
	}
	for i, rec := range valid {
		if i >= mapHeight {
			break
		}
		id := rec.Project.ID()
		line := rec.Project.DisplayName()
		if ms, ok := s.Engine.MarkerState(id); ok && compact[id] {
			line += a.styles.Muted.Render(" · " + geo.FormatDistance(ms.DistanceKm))
		}
		side = append(side, a.cursorLine(TabMap, i, line))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, grid, " ", strings.Join(side, "\n"))
}

func (a *App) renderList() string {
	s := a.session
	cards := s.List.Cards()
	if len(cards) == 0 && len(s.List.Skipped()) == 0 {
		return a.styles.Muted.Render("No projects match the current filters.")
	}

	active := s.List.ActiveID()
	var lines []string
	for i, c := range cards {
		title := c.Name
		if c.ProjectID == active {
			title = a.styles.Highlight.Render(title + "  ★")
		}
		lines = append(lines,
			a.cursorLine(TabList, i, title),
			a.styles.Muted.Render(fmt.Sprintf("    %s · %s · %s", c.Location, c.PropertyType, c.BuildingStatus)),
			a.styles.Muted.Render(fmt.Sprintf("    %s · %s · %s", c.Developer, c.Coordinates, c.Distance)),
		)
	}
	for _, sk := range s.List.Skipped() {
		lines = append(lines, a.styles.Warning.Render(fmt.Sprintf("  ! %s: %s", sk.Name, sk.Diagnostic)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderSidebar() string {
	s := a.session
	lines := []string{a.styles.Muted.Render("Filter: ") + a.sidebarFilter.View()}
	entries := s.Sidebar.Entries()
	for i, e := range entries {
		line := fmt.Sprintf("%-40s %-20s %8s", e.Name, e.PropertyType, e.Distance)
		lines = append(lines, a.cursorLine(TabSidebar, i, line))
	}
	lines = append(lines, a.styles.Muted.Render(fmt.Sprintf("%d of %d projects", len(entries), s.Sidebar.Total())))
	return strings.Join(lines, "\n")
}

func (a *App) renderSummary() string {
	sum := a.session.Summary.Summary()
	lines := []string{
		fmt.Sprintf("Total projects:   %d", sum.Total),
		fmt.Sprintf("Average distance: %s", sum.MeanDistance),
		"",
		a.styles.Title.Render("Distance"),
		fmt.Sprintf("  Within 1km:  %d", sum.Bands.Within1km),
		fmt.Sprintf("  Within 2km:  %d", sum.Bands.Within2km),
		fmt.Sprintf("  Within 5km:  %d", sum.Bands.Within5km),
		fmt.Sprintf("  Beyond 5km:  %d", sum.Bands.Beyond5km),
		"",
		a.styles.Title.Render("Property types"),
	}
	for _, g := range sum.ByType {
		lines = append(lines, fmt.Sprintf("  %-30s %d", g.Name, g.Count))
	}
	lines = append(lines, "", a.styles.Title.Render("Building status"))
	for _, g := range sum.ByStatus {
		lines = append(lines, fmt.Sprintf("  %-30s %d", g.Name, g.Count))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderFilters() string {
	rows := a.filterRows()
	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		label := r.label
		if r.header {
			label = a.styles.Title.Render(label)
		}
		lines = append(lines, a.cursorLine(TabFilters, i, label))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderStatus() string {
	s := a.session
	snap := s.Engine.Snapshot()
	status := fmt.Sprintf("%d results · %d on map", len(snap.Records), s.Engine.MarkerCount())
	if n := len(snap.Partition.Invalid); n > 0 {
		status += a.styles.Warning.Render(fmt.Sprintf(" · %d without coordinates", n))
	}
	if err := s.Engine.Err(); err != nil {
		status += a.styles.Error.Render(" · data source unavailable: " + err.Error())
	}
	if a.initErr != nil {
		status += a.styles.Error.Render(" · some filters unavailable")
	}
	if a.lastErr != nil {
		status += a.styles.Error.Render(" · " + a.lastErr.Error())
	}
	return status
}

func (a *App) cursorLine(t Tab, i int, line string) string {
	if a.tab == t && a.cursors[t] == i && a.edit == editNone {
		return a.styles.Cursor.Render("> ") + line
	}
	return "  " + line
}
