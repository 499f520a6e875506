package surface

import (
	"errors"
	"fmt"
)

// ErrInvalidWindowSize is returned when a window is built with size < 1
var ErrInvalidWindowSize = errors.New("window size must be at least 1")

// SelectionWindow keeps a fixed-size range [offset, offset+size) of the track
// list in view so that the selected track is always inside it.
type SelectionWindow struct {
	size   int
	count  int
	offset int

	changes Listeners[int]
}

// NewSelectionWindow creates a window showing size items
func NewSelectionWindow(size int) (*SelectionWindow, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindowSize, size)
	}
	return &SelectionWindow{size: size}, nil
}

// Size returns the number of visible slots
func (w *SelectionWindow) Size() int { return w.size }

// Offset returns the index of the first visible item
func (w *SelectionWindow) Offset() int { return w.offset }

// ItemCount returns the last known list length
func (w *SelectionWindow) ItemCount() int { return w.count }

// OnOffsetChanged registers fn to be called with the new offset whenever it moves
func (w *SelectionWindow) OnOffsetChanged(fn func(offset int)) *Subscription {
	return w.changes.Add(fn)
}

// Contains reports whether idx is currently visible
func (w *SelectionWindow) Contains(idx int) bool {
	return idx >= w.offset && idx < w.offset+w.size && idx < w.count
}

// OnListChanged records a new list length and pulls the offset back if the
// list shrank underneath it.
func (w *SelectionWindow) OnListChanged(count int) {
	if count < 0 {
		count = 0
	}
	w.count = count
	if w.offset > w.maxOffset() {
		w.setOffset(w.maxOffset())
	}
}

// OnSelectionChanged scrolls the window so that selected is visible.
// NoSelection and indices outside the list leave the window untouched.
func (w *SelectionWindow) OnSelectionChanged(selected, count int) {
	if selected == NoSelection || selected < 0 || selected >= count {
		return
	}
	if count != w.count {
		// the list changed without a list notification
		w.OnListChanged(count)
	}

	switch {
	case selected >= w.offset+w.size:
		// selection becomes the last visible slot
		w.setOffset(selected - w.size + 1)
	case selected <= w.offset:
		// selection becomes the first visible slot
		w.setOffset(selected)
	case w.offset+w.size > w.count:
		w.setOffset(w.maxOffset())
	}
}

func (w *SelectionWindow) maxOffset() int {
	return max(w.count-w.size, 0)
}

// setOffset stores the new offset and notifies listeners when it moved.
// Every caller computes an offset inside [0, maxOffset]; anything else is a
// bug and panics.
func (w *SelectionWindow) setOffset(offset int) {
	if offset < 0 || offset > w.maxOffset() {
		panic(fmt.Sprintf("surface: window offset %d outside [0, %d]", offset, w.maxOffset()))
	}
	if offset == w.offset {
		return
	}
	w.offset = offset
	w.changes.Emit(offset)
}
