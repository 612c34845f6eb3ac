package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the browser and blocks until the user quits or ctx ends.
func Run(ctx context.Context, session *Session, opts ...tea.ProgramOption) error {
	app, err := NewApp(ctx, session)
	if err != nil {
		return err
	}

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(app, opts...)

	// Pipeline callbacks can fire from inside Update, where a blocking Send
	// would deadlock the event loop.
	redraw := func() { go p.Send(refreshMsg{}) }
	session.Engine.SetListener(redraw)
	session.List.OnChange(redraw)
	defer session.Engine.SetListener(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
