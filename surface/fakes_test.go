package surface

import "fmt"

type fakeParam struct {
	name  string
	value float64
}

func (p *fakeParam) Name() string       { return p.name }
func (p *fakeParam) Value() float64     { return p.value }
func (p *fakeParam) Min() float64       { return 0 }
func (p *fakeParam) Max() float64       { return 1 }
func (p *fakeParam) SetValue(v float64) { p.value = v }

type fakeToggle struct{ on bool }

func (t *fakeToggle) On() bool    { return t.on }
func (t *fakeToggle) Set(on bool) { t.on = on }

type fakeDevice struct {
	params []Parameter
}

func (d *fakeDevice) Name() string            { return "device" }
func (d *fakeDevice) Parameters() []Parameter { return d.params }

type fakeTrack struct {
	name    string
	volume  *fakeParam
	pan     *fakeParam
	sends   []Parameter
	mute    *fakeToggle
	devices []Device
}

func newFakeTrack(name string, params int) *fakeTrack {
	t := &fakeTrack{
		name:   name,
		volume: &fakeParam{name: name + " volume"},
		pan:    &fakeParam{name: name + " pan"},
		sends: []Parameter{
			&fakeParam{name: name + " send A"},
			&fakeParam{name: name + " send B"},
		},
		mute: &fakeToggle{},
	}
	if params > 0 {
		d := &fakeDevice{}
		for i := 0; i < params; i++ {
			d.params = append(d.params, &fakeParam{name: fmt.Sprintf("%s param %d", name, i)})
		}
		t.devices = []Device{d}
	}
	return t
}

func (t *fakeTrack) Name() string       { return t.name }
func (t *fakeTrack) Volume() Parameter  { return t.volume }
func (t *fakeTrack) Pan() Parameter     { return t.pan }
func (t *fakeTrack) Sends() []Parameter { return t.sends }
func (t *fakeTrack) Mute() Toggle       { return t.mute }
func (t *fakeTrack) Devices() []Device  { return t.devices }

func fakeTracks(n, params int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = newFakeTrack(fmt.Sprintf("T%d", i+1), params)
	}
	return tracks
}

type fakeSession struct {
	position float64
	tracks   []Track
	returns  []Track
	master   Track
	selected int
	playing  bool

	positionL  Listeners[struct{}]
	selectionL Listeners[struct{}]
	tracksL    Listeners[struct{}]
	playingL   Listeners[struct{}]
	mixerL     Listeners[struct{}]
}

func newFakeSession(tracks []Track) *fakeSession {
	return &fakeSession{
		tracks:   tracks,
		returns:  fakeTracks(2, 0),
		master:   newFakeTrack("Master", 0),
		selected: NoSelection,
	}
}

func (s *fakeSession) CurrentPosition() float64 { return s.position }
func (s *fakeSession) Tracks() []Track          { return s.tracks }
func (s *fakeSession) ReturnTracks() []Track    { return s.returns }
func (s *fakeSession) MasterTrack() Track       { return s.master }
func (s *fakeSession) SelectedTrack() int       { return s.selected }
func (s *fakeSession) IsPlaying() bool          { return s.playing }

func (s *fakeSession) SelectTrack(idx int) {
	if idx == s.selected {
		return
	}
	s.selected = idx
	s.selectionL.Emit(struct{}{})
}

func (s *fakeSession) SetPlaying(playing bool) {
	s.playing = playing
	s.playingL.Emit(struct{}{})
}

func (s *fakeSession) setPosition(p float64) {
	s.position = p
	s.positionL.Emit(struct{}{})
}

func (s *fakeSession) setTracks(tracks []Track) {
	s.tracks = tracks
	if s.selected >= len(tracks) {
		s.selected = NoSelection
	}
	s.tracksL.Emit(struct{}{})
}

func (s *fakeSession) OnPositionChanged(fn func()) *Subscription  { return s.positionL.Add(func(struct{}) { fn() }) }
func (s *fakeSession) OnSelectionChanged(fn func()) *Subscription { return s.selectionL.Add(func(struct{}) { fn() }) }
func (s *fakeSession) OnTracksChanged(fn func()) *Subscription    { return s.tracksL.Add(func(struct{}) { fn() }) }
func (s *fakeSession) OnPlayingChanged(fn func()) *Subscription   { return s.playingL.Add(func(struct{}) { fn() }) }
func (s *fakeSession) OnMixerChanged(fn func()) *Subscription     { return s.mixerL.Add(func(struct{}) { fn() }) }

func (s *fakeSession) listenerCount() int {
	return s.positionL.Len() + s.selectionL.Len() + s.tracksL.Len() + s.playingL.Len() + s.mixerL.Len()
}

type fakeEncoder struct {
	param    Parameter
	connects int
}

func (e *fakeEncoder) ConnectTo(p Parameter) {
	e.param = p
	e.connects++
}

func (e *fakeEncoder) Release() { e.param = nil }

type fakeButton struct {
	values  []uint8
	onPress func()
}

func (b *fakeButton) SendValue(v uint8) { b.values = append(b.values, v) }
func (b *fakeButton) OnPress(fn func()) { b.onPress = fn }

func (b *fakeButton) press() {
	if b.onPress != nil {
		b.onPress()
	}
}

func (b *fakeButton) last() uint8 {
	if len(b.values) == 0 {
		return 0
	}
	return b.values[len(b.values)-1]
}

type fakeValueControl struct {
	sent    []uint8
	onValue func(uint8)
}

func (c *fakeValueControl) SendValue(v uint8)      { c.sent = append(c.sent, v) }
func (c *fakeValueControl) OnValue(fn func(uint8)) { c.onValue = fn }

func (c *fakeValueControl) receive(v uint8) {
	if c.onValue != nil {
		c.onValue(v)
	}
}

// tickScheduler runs callbacks after the requested number of advance calls
type tickScheduler struct {
	now     int
	pending []scheduled
}

type scheduled struct {
	at int
	fn func()
}

func (s *tickScheduler) Schedule(ticks int, fn func()) {
	s.pending = append(s.pending, scheduled{at: s.now + ticks, fn: fn})
}

func (s *tickScheduler) advance() {
	s.now++
	var keep []scheduled
	for _, p := range s.pending {
		if p.at <= s.now {
			p.fn()
		} else {
			keep = append(keep, p)
		}
	}
	s.pending = keep
}

func fakeStrips(n int) ([]Strip, []*fakeEncoder, []*fakeButton) {
	strips := make([]Strip, n)
	params := make([]*fakeEncoder, n)
	mutes := make([]*fakeButton, n)
	for i := range strips {
		params[i] = &fakeEncoder{}
		mutes[i] = &fakeButton{}
		strips[i] = Strip{
			Volume: &fakeEncoder{},
			Pan:    &fakeEncoder{},
			Sends:  []Encoder{&fakeEncoder{}, &fakeEncoder{}},
			Mute:   mutes[i],
			Param:  params[i],
		}
	}
	return strips, params, mutes
}
