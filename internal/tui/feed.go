package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ppiankov/verdict/internal/session"
)

// Feed carries session snapshots into the UI loop. Observe never blocks:
// snapshots the UI has not consumed yet are replaced by newer ones.
type Feed struct {
	mu     sync.Mutex
	latest session.State
	notify chan struct{}
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{notify: make(chan struct{}, 1)}
}

// Observe is a session.Observer
func (f *Feed) Observe(state session.State) {
	f.mu.Lock()
	f.latest = state
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// Latest returns the newest snapshot
func (f *Feed) Latest() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// stateMsg delivers a snapshot to the model
type stateMsg struct {
	State session.State
}

// waitForState blocks until the feed has a new snapshot
func waitForState(f *Feed) tea.Cmd {
	return func() tea.Msg {
		if f == nil {
			return nil
		}
		<-f.notify
		return stateMsg{State: f.Latest()}
	}
}
