package surface

// Relative encoder values in two's-complement mode
const (
	stepForward  uint8 = 1
	stepBackward uint8 = MaxValue
)

// TrackSelectEncoder moves the session's track selection from a relative
// encoder and reflects the selected index back onto it.
type TrackSelectEncoder struct {
	session Session
	control ValueControl
	sub     *Subscription
}

// NewTrackSelectEncoder wires control to the session selection and sends the
// current selection once.
func NewTrackSelectEncoder(session Session, control ValueControl) *TrackSelectEncoder {
	e := &TrackSelectEncoder{session: session, control: control}
	control.OnValue(e.receiveValue)
	e.sub = session.OnSelectionChanged(e.onSelectedTrackChanged)
	e.onSelectedTrackChanged()
	return e
}

func (e *TrackSelectEncoder) onSelectedTrackChanged() {
	idx := e.session.SelectedTrack()
	if idx == NoSelection {
		return
	}
	e.control.SendValue(uint8(min(idx+1, MaxValue)))
}

func (e *TrackSelectEncoder) receiveValue(v uint8) {
	tracks := e.session.Tracks()
	if len(tracks) == 0 {
		return
	}
	idx := e.session.SelectedTrack()
	if idx == NoSelection || idx >= len(tracks) {
		// master or a return track is selected; jump back into the list
		e.session.SelectTrack(len(tracks) - 1)
		return
	}
	switch {
	case v == stepBackward && idx > 0:
		idx--
	case v == stepForward && idx < len(tracks)-1:
		idx++
	}
	e.session.SelectTrack(idx)
}

// Disconnect stops following the session selection
func (e *TrackSelectEncoder) Disconnect() {
	e.sub.Cancel()
	e.control.OnValue(nil)
}
