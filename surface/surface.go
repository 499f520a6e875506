package surface

import (
	"go.uber.org/zap"
)

// DefaultPulseDelay is how many scheduler ticks the play LED stays lit on a beat
const DefaultPulseDelay = 2

// Snapshot is a read-only view of the surface state for monitors
type Snapshot struct {
	Position  float64
	Bar       int
	Beat      int
	Sixteenth int
	Playing   bool

	Offset   int
	Size     int
	Selected int
	Tracks   []string
}

// Option configures a Surface
type Option func(*options)

type options struct {
	logger     *zap.Logger
	pulseDelay int
	windowSize int
}

// WithLogger sets the logger used for lifecycle and recovered listener failures
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPulseDelay sets how many scheduler ticks a beat pulse lasts
func WithPulseDelay(ticks int) Option {
	return func(o *options) {
		o.pulseDelay = ticks
	}
}

// WithWindowSize overrides the window size (defaults to the number of strips)
func WithWindowSize(n int) Option {
	return func(o *options) {
		o.windowSize = n
	}
}

// Surface connects one hardware controller to one session. It is created on
// connection and dropped after Disconnect.
type Surface struct {
	session    Session
	controls   Controls
	scheduler  Scheduler
	log        *zap.Logger
	pulseDelay int

	clock       *PhaseClock
	window      *SelectionWindow
	mixer       *Mixer
	trackSelect *TrackSelectEncoder

	subs         []*Subscription
	updates      Listeners[Snapshot]
	disconnected bool
}

// New builds a surface and attaches it to the session
func New(session Session, controls Controls, scheduler Scheduler, opts ...Option) (*Surface, error) {
	o := options{
		pulseDelay: DefaultPulseDelay,
		windowSize: len(controls.Strips),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	window, err := NewSelectionWindow(o.windowSize)
	if err != nil {
		return nil, err
	}

	s := &Surface{
		session:    session,
		controls:   controls,
		scheduler:  scheduler,
		log:        o.logger,
		pulseDelay: o.pulseDelay,
		clock:      NewPhaseClock(),
		window:     window,
		mixer:      NewMixer(controls.Strips, controls.Master),
	}

	s.subs = append(s.subs,
		session.OnPositionChanged(func() { s.guard("position", s.onPositionChanged) }),
		s.clock.OnBeat(s.onBeat),
		s.window.OnOffsetChanged(s.onOffsetChanged),
	)

	if controls.TrackSelect != nil {
		s.trackSelect = NewTrackSelectEncoder(session, controls.TrackSelect)
	}
	if controls.Play != nil {
		controls.Play.OnPress(func() { s.guard("play", s.togglePlay) })
	}

	tracks := session.Tracks()
	s.window.OnListChanged(len(tracks))
	s.mixer.Rebind(tracks, s.window.Offset())
	s.mixer.BindMaster(session.MasterTrack())
	s.bindReturns()

	s.subs = append(s.subs,
		session.OnSelectionChanged(func() { s.guard("selection", s.onSelectedTrackChanged) }),
		session.OnTracksChanged(func() { s.guard("tracks", s.onTracksChanged) }),
		session.OnPlayingChanged(func() { s.guard("playing", s.notify) }),
		session.OnMixerChanged(func() { s.guard("mixer", s.mixer.RefreshMutes) }),
	)

	if sel := session.SelectedTrack(); (sel == NoSelection || sel >= len(tracks)) && len(tracks) > 0 {
		session.SelectTrack(0)
	}
	s.guard("selection", s.onSelectedTrackChanged)

	s.log.Info("surface connected",
		zap.Int("window", s.window.Size()),
		zap.Int("tracks", len(tracks)),
		zap.Int("returns", len(session.ReturnTracks())))
	return s, nil
}

// Clock returns the phase clock
func (s *Surface) Clock() *PhaseClock { return s.clock }

// Window returns the selection window
func (s *Surface) Window() *SelectionWindow { return s.window }

// Mixer returns the windowed mixer
func (s *Surface) Mixer() *Mixer { return s.mixer }

// CurrentWindowOffset returns the first visible track index
func (s *Surface) CurrentWindowOffset() int { return s.window.Offset() }

// OnUpdate registers fn to receive a snapshot after every handled event
func (s *Surface) OnUpdate(fn func(Snapshot)) *Subscription {
	return s.updates.Add(fn)
}

// Snapshot returns the current state
func (s *Surface) Snapshot() Snapshot {
	bar, beat, sixteenth := s.clock.Phase()
	tracks := s.session.Tracks()
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.Name()
	}
	return Snapshot{
		Position:  s.clock.LastPosition(),
		Bar:       bar,
		Beat:      beat,
		Sixteenth: sixteenth,
		Playing:   s.session.IsPlaying(),
		Offset:    s.window.Offset(),
		Size:      s.window.Size(),
		Selected:  s.session.SelectedTrack(),
		Tracks:    names,
	}
}

// Pulse lights b fully and schedules it back to zero after delay ticks.
// Overlapping pulses are not cancelled.
func Pulse(b Button, scheduler Scheduler, delay int) {
	b.SendValue(MaxValue)
	scheduler.Schedule(delay, func() { b.SendValue(0) })
}

// Disconnect detaches every listener and releases all controls. Calling it
// again is a no-op.
func (s *Surface) Disconnect() {
	if s.disconnected {
		return
	}
	s.disconnected = true

	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = nil
	if s.trackSelect != nil {
		s.trackSelect.Disconnect()
	}
	if s.controls.Play != nil {
		s.controls.Play.OnPress(nil)
	}
	s.mixer.Release()
	for _, enc := range s.controls.ReturnVolumes {
		release(enc)
	}
	s.log.Info("surface disconnected")
}

func (s *Surface) onPositionChanged() {
	s.clock.OnPositionChanged(s.session.CurrentPosition())
	s.notify()
}

func (s *Surface) onBeat(Tick) {
	if s.controls.Play != nil {
		Pulse(s.controls.Play, s.scheduler, s.pulseDelay)
	}
}

func (s *Surface) onOffsetChanged(offset int) {
	s.log.Debug("window moved", zap.Int("offset", offset))
	s.mixer.Rebind(s.session.Tracks(), offset)
}

func (s *Surface) onSelectedTrackChanged() {
	tracks := s.session.Tracks()
	sel := s.session.SelectedTrack()
	if sel == NoSelection || sel >= len(tracks) {
		// master or return track, not part of the window
		s.notify()
		return
	}
	s.window.OnSelectionChanged(sel, len(tracks))
	s.session.SelectTrack(sel)
	s.notify()
}

func (s *Surface) onTracksChanged() {
	tracks := s.session.Tracks()
	before := s.window.Offset()
	s.window.OnListChanged(len(tracks))
	if s.window.Offset() == before {
		// same offset, different tracks underneath
		s.mixer.Rebind(tracks, before)
	}
	s.mixer.BindMaster(s.session.MasterTrack())
	s.bindReturns()
	s.onSelectedTrackChanged()
}

func (s *Surface) bindReturns() {
	returns := s.session.ReturnTracks()
	for i, enc := range s.controls.ReturnVolumes {
		if i < len(returns) {
			connect(enc, returns[i].Volume())
		} else {
			release(enc)
		}
	}
}

func (s *Surface) togglePlay() {
	s.session.SetPlaying(!s.session.IsPlaying())
}

func (s *Surface) notify() {
	if s.updates.Len() == 0 {
		return
	}
	s.updates.Emit(s.Snapshot())
}

// guard runs fn and logs instead of propagating a panic into the host's
// event dispatch.
func (s *Surface) guard(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("surface handler failed",
				zap.String("event", event),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	fn()
}
