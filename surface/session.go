package surface

// NoSelection is the selected-track index reported when the selection sits
// outside the track list (master or a return track).
const NoSelection = -1

// Parameter is an automatable value on the host (volume, pan, send, device knob).
type Parameter interface {
	Name() string
	Value() float64
	Min() float64
	Max() float64
	SetValue(v float64)
}

// Toggle is an on/off host property such as a track mute.
type Toggle interface {
	On() bool
	Set(on bool)
}

// Device is an instrument or effect on a track.
type Device interface {
	Name() string
	Parameters() []Parameter
}

// Track is a single entry of the session's ordered track list.
type Track interface {
	Name() string
	Volume() Parameter
	Pan() Parameter
	Sends() []Parameter
	Mute() Toggle
	Devices() []Device
}

// Session is the live set as seen by the surface.
type Session interface {
	CurrentPosition() float64
	Tracks() []Track
	ReturnTracks() []Track
	MasterTrack() Track

	// SelectedTrack returns the index into Tracks, or NoSelection.
	SelectedTrack() int
	SelectTrack(idx int)

	IsPlaying() bool
	SetPlaying(playing bool)

	OnPositionChanged(fn func()) *Subscription
	OnSelectionChanged(fn func()) *Subscription
	OnTracksChanged(fn func()) *Subscription
	OnPlayingChanged(fn func()) *Subscription
	// OnMixerChanged fires when a mixer value (e.g. a mute) changes on the host side.
	OnMixerChanged(fn func()) *Subscription
}

// Scheduler defers a callback by a number of host ticks.
type Scheduler interface {
	Schedule(ticks int, fn func())
}

// ParameterCount reports how many automatable parameters the first device on
// the track exposes. Tracks without devices report 0.
func ParameterCount(t Track) int {
	if t == nil {
		return 0
	}
	devices := t.Devices()
	if len(devices) == 0 {
		return 0
	}
	return len(devices[0].Parameters())
}
