package tui

import "oslo-surface/surface"

// Feed hands snapshots from the event loop to the monitor. Publish never
// blocks; a slow reader only sees the newest snapshot.
type Feed struct {
	ch chan surface.Snapshot
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan surface.Snapshot, 1)}
}

// C returns the receive side for ListenForSnapshots
func (f *Feed) C() <-chan surface.Snapshot { return f.ch }

// Publish replaces any unread snapshot with s. It must be called from a
// single goroutine.
func (f *Feed) Publish(s surface.Snapshot) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}
