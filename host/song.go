package host

import (
	"fmt"

	"oslo-surface/surface"
)

// Outbound receives changes made on the surface side so they can be forwarded
// to the host application.
type Outbound interface {
	ParamChanged(ref ParamRef, value float64)
	MuteChanged(track int, on bool)
	SelectionChanged(track int)
	PlayingChanged(playing bool)
}

// NumSends is the number of send parameters on every track
const NumSends = 2

// Track mirrors one host track
type Track struct {
	index   int
	name    string
	volume  *Param
	pan     *Param
	sends   []*Param
	mute    *Mute
	devices []*Device
}

func (t *Track) Name() string              { return t.name }
func (t *Track) Index() int                { return t.index }
func (t *Track) Volume() surface.Parameter { return t.volume }
func (t *Track) Pan() surface.Parameter    { return t.pan }
func (t *Track) Mute() surface.Toggle      { return t.mute }
func (t *Track) VolumeParam() *Param       { return t.volume }
func (t *Track) PanParam() *Param          { return t.pan }
func (t *Track) MuteState() *Mute          { return t.mute }
func (t *Track) SendParam(i int) *Param    { return t.sends[i] }

// DeviceParams returns the parameters of the first device, if any
func (t *Track) DeviceParams() []*Param {
	if len(t.devices) == 0 {
		return nil
	}
	return t.devices[0].params
}

func (t *Track) Sends() []surface.Parameter {
	out := make([]surface.Parameter, len(t.sends))
	for i, p := range t.sends {
		out[i] = p
	}
	return out
}

func (t *Track) Devices() []surface.Device {
	out := make([]surface.Device, len(t.devices))
	for i, d := range t.devices {
		out[i] = d
	}
	return out
}

// Song is an in-memory mirror of the host's live set. It implements
// surface.Session and must only be touched from the Loop goroutine.
type Song struct {
	position float64
	tracks   []*Track
	returns  []*Track
	master   *Track
	selected int
	playing  bool
	out      Outbound

	positionL  surface.Listeners[struct{}]
	selectionL surface.Listeners[struct{}]
	tracksL    surface.Listeners[struct{}]
	playingL   surface.Listeners[struct{}]
	mixerL     surface.Listeners[struct{}]
}

// NewSong creates an empty song with a master track and no selection
func NewSong() *Song {
	s := &Song{selected: surface.NoSelection}
	s.master = &Track{
		index:  -1,
		name:   "Master",
		volume: newParam(s, ParamRef{Kind: KindMasterVolume}, "Master Volume", 0, 1),
		pan:    newParam(s, ParamRef{Kind: KindMasterPan}, "Master Pan", -1, 1),
		mute:   &Mute{track: -1},
	}
	return s
}

// SetOutbound attaches the sink for surface-side changes
func (s *Song) SetOutbound(out Outbound) { s.out = out }

func (s *Song) CurrentPosition() float64   { return s.position }
func (s *Song) MasterTrack() surface.Track { return s.master }
func (s *Song) SelectedTrack() int         { return s.selected }
func (s *Song) IsPlaying() bool            { return s.playing }
func (s *Song) Master() *Track             { return s.master }
func (s *Song) NumTracks() int             { return len(s.tracks) }
func (s *Song) NumReturns() int            { return len(s.returns) }

func (s *Song) Tracks() []surface.Track       { return asTracks(s.tracks) }
func (s *Song) ReturnTracks() []surface.Track { return asTracks(s.returns) }

func asTracks(in []*Track) []surface.Track {
	out := make([]surface.Track, len(in))
	for i, t := range in {
		out[i] = t
	}
	return out
}

// Track returns the track at idx
func (s *Song) Track(idx int) (*Track, error) {
	if idx < 0 || idx >= len(s.tracks) {
		return nil, fmt.Errorf("track %d: %w", idx, ErrNoSuchTrack)
	}
	return s.tracks[idx], nil
}

// Return returns the return track at idx
func (s *Song) Return(idx int) (*Track, error) {
	if idx < 0 || idx >= len(s.returns) {
		return nil, fmt.Errorf("return %d: %w", idx, ErrNoSuchTrack)
	}
	return s.returns[idx], nil
}

// SelectTrack selects a track from the surface side. Out-of-range indexes
// select nothing.
func (s *Song) SelectTrack(idx int) {
	if idx < 0 || idx >= len(s.tracks) {
		idx = surface.NoSelection
	}
	if idx == s.selected {
		return
	}
	s.selected = idx
	if s.out != nil && idx != surface.NoSelection {
		s.out.SelectionChanged(idx)
	}
	s.selectionL.Emit(struct{}{})
}

// SetPlaying starts or stops the transport from the surface side
func (s *Song) SetPlaying(playing bool) {
	if playing == s.playing {
		return
	}
	s.playing = playing
	if s.out != nil {
		s.out.PlayingChanged(playing)
	}
	s.playingL.Emit(struct{}{})
}

// SetPosition records a transport position reported by the host. Repeated
// positions still notify; a stopped transport keeps reporting the same value.
func (s *Song) SetPosition(position float64) {
	s.position = position
	s.positionL.Emit(struct{}{})
}

// SetPlayingState records the transport state reported by the host
func (s *Song) SetPlayingState(playing bool) {
	if playing == s.playing {
		return
	}
	s.playing = playing
	s.playingL.Emit(struct{}{})
}

// SetSelected records a selection reported by the host
func (s *Song) SetSelected(idx int) {
	if idx < 0 || idx >= len(s.tracks) {
		idx = surface.NoSelection
	}
	if idx == s.selected {
		return
	}
	s.selected = idx
	s.selectionL.Emit(struct{}{})
}

// SetTracks replaces the track list. Tracks keep their mixer state when the
// name at an index is unchanged. A selection past the new end is dropped.
func (s *Song) SetTracks(names []string) {
	s.tracks = s.rebuild(s.tracks, names, false)
	if s.selected >= len(s.tracks) {
		s.selected = surface.NoSelection
	}
	s.tracksL.Emit(struct{}{})
}

// SetReturns replaces the return track list
func (s *Song) SetReturns(names []string) {
	s.returns = s.rebuild(s.returns, names, true)
	s.tracksL.Emit(struct{}{})
}

// SetDeviceParams replaces the parameters of the track's first device
func (s *Song) SetDeviceParams(idx int, device string, specs []ParamSpec) error {
	t, err := s.Track(idx)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		t.devices = nil
	} else {
		d := &Device{name: device, params: make([]*Param, len(specs))}
		for i, spec := range specs {
			p := newParam(s, ParamRef{Kind: KindDevice, Track: idx, Index: i}, spec.Name, spec.Min, spec.Max)
			p.Update(spec.Value)
			d.params[i] = p
		}
		t.devices = []*Device{d}
	}
	s.tracksL.Emit(struct{}{})
	return nil
}

// SetMute records a mute reported by the host
func (s *Song) SetMute(idx int, on bool) error {
	t, err := s.Track(idx)
	if err != nil {
		return err
	}
	if t.mute.on == on {
		return nil
	}
	t.mute.on = on
	s.mixerL.Emit(struct{}{})
	return nil
}

func (s *Song) rebuild(old []*Track, names []string, returns bool) []*Track {
	out := make([]*Track, len(names))
	for i, name := range names {
		if i < len(old) && old[i].name == name {
			out[i] = old[i]
			continue
		}
		out[i] = s.newTrack(i, name, returns)
	}
	return out
}

func (s *Song) newTrack(idx int, name string, returns bool) *Track {
	volume := ParamRef{Kind: KindVolume, Track: idx}
	if returns {
		volume.Kind = KindReturnVolume
	}
	t := &Track{
		index:  idx,
		name:   name,
		volume: newParam(s, volume, name+" Volume", 0, 1),
		pan:    newParam(s, ParamRef{Kind: KindPan, Track: idx}, name+" Pan", -1, 1),
		mute:   &Mute{track: idx},
	}
	if returns {
		// only return volumes are mapped on the host side
		t.pan.song = nil
	} else {
		t.mute.song = s
		t.sends = make([]*Param, NumSends)
		for i := range t.sends {
			t.sends[i] = newParam(s, ParamRef{Kind: KindSend, Track: idx, Index: i},
				fmt.Sprintf("%s Send %c", name, 'A'+i), 0, 1)
		}
	}
	return t
}

func (s *Song) OnPositionChanged(fn func()) *surface.Subscription {
	return s.positionL.Add(func(struct{}) { fn() })
}

func (s *Song) OnSelectionChanged(fn func()) *surface.Subscription {
	return s.selectionL.Add(func(struct{}) { fn() })
}

func (s *Song) OnTracksChanged(fn func()) *surface.Subscription {
	return s.tracksL.Add(func(struct{}) { fn() })
}

func (s *Song) OnPlayingChanged(fn func()) *surface.Subscription {
	return s.playingL.Add(func(struct{}) { fn() })
}

func (s *Song) OnMixerChanged(fn func()) *surface.Subscription {
	return s.mixerL.Add(func(struct{}) { fn() })
}
