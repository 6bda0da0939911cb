package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	tutoring "github.com/koscakluka/lingua-live/core"
)

// Updates carries session snapshots to the program. Publish never blocks; a
// snapshot not yet picked up is replaced by the newer one.
type Updates struct {
	ch chan tutoring.Snapshot
}

func NewUpdates() *Updates {
	return &Updates{ch: make(chan tutoring.Snapshot, 1)}
}

// Publish is meant to be passed to [tutoring.WithUpdateCallback].
func (u *Updates) Publish(snapshot tutoring.Snapshot) {
	for {
		select {
		case u.ch <- snapshot:
			return
		default:
		}
		select {
		case <-u.ch:
		default:
		}
	}
}

type snapshotMsg tutoring.Snapshot

func (u *Updates) listen() tea.Cmd {
	if u == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(<-u.ch)
	}
}
