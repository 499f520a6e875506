package surface

// Mixer binds a fixed number of channel strips to the tracks inside the
// selection window.
type Mixer struct {
	strips []Strip
	bound  []Track
	master Strip
}

// NewMixer creates a mixer over the given strips and wires their mute buttons
func NewMixer(strips []Strip, master Strip) *Mixer {
	m := &Mixer{
		strips: strips,
		bound:  make([]Track, len(strips)),
		master: master,
	}
	for s := range strips {
		if strips[s].Mute == nil {
			continue
		}
		slot := s
		strips[s].Mute.OnPress(func() { m.toggleMute(slot) })
	}
	return m
}

// Size returns the number of strips
func (m *Mixer) Size() int { return len(m.strips) }

// Bound returns the track on slot s, or nil
func (m *Mixer) Bound(s int) Track {
	if s < 0 || s >= len(m.bound) {
		return nil
	}
	return m.bound[s]
}

// Rebind attaches strip s to tracks[offset+s]. Strips past the end of the
// list are released.
func (m *Mixer) Rebind(tracks []Track, offset int) {
	for s := range m.strips {
		idx := offset + s
		if idx >= 0 && idx < len(tracks) {
			m.bindStrip(s, tracks[idx])
		} else {
			m.releaseStrip(s)
		}
	}
}

// BindMaster attaches the master strip's volume and pan
func (m *Mixer) BindMaster(t Track) {
	if t == nil {
		return
	}
	connect(m.master.Volume, t.Volume())
	connect(m.master.Pan, t.Pan())
}

// RefreshMutes re-sends the mute LED of every bound strip
func (m *Mixer) RefreshMutes() {
	for s := range m.strips {
		m.sendMute(s)
	}
}

// Release detaches every strip including master
func (m *Mixer) Release() {
	for s := range m.strips {
		m.releaseStrip(s)
	}
	release(m.master.Volume)
	release(m.master.Pan)
}

func (m *Mixer) bindStrip(s int, t Track) {
	strip := m.strips[s]
	m.bound[s] = t

	connect(strip.Volume, t.Volume())
	connect(strip.Pan, t.Pan())
	sends := t.Sends()
	for i, enc := range strip.Sends {
		if i < len(sends) {
			connect(enc, sends[i])
		} else {
			release(enc)
		}
	}
	m.sendMute(s)

	// the second parameter of the first device goes on the extra encoder;
	// tracks with fewer than two parameters leave it as it was
	if strip.Param != nil && ParameterCount(t) > 1 {
		strip.Param.ConnectTo(t.Devices()[0].Parameters()[1])
	}
}

func (m *Mixer) releaseStrip(s int) {
	strip := m.strips[s]
	m.bound[s] = nil
	release(strip.Volume)
	release(strip.Pan)
	for _, enc := range strip.Sends {
		release(enc)
	}
	release(strip.Param)
	if strip.Mute != nil {
		strip.Mute.SendValue(0)
	}
}

func (m *Mixer) toggleMute(s int) {
	t := m.bound[s]
	if t == nil || t.Mute() == nil {
		return
	}
	mute := t.Mute()
	mute.Set(!mute.On())
	m.sendMute(s)
}

func (m *Mixer) sendMute(s int) {
	strip := m.strips[s]
	if strip.Mute == nil {
		return
	}
	var v uint8
	if t := m.bound[s]; t != nil && t.Mute() != nil && t.Mute().On() {
		v = MaxValue
	}
	strip.Mute.SendValue(v)
}

func connect(e Encoder, p Parameter) {
	if e == nil {
		return
	}
	if p == nil {
		e.Release()
		return
	}
	e.ConnectTo(p)
}

func release(e Encoder) {
	if e != nil {
		e.Release()
	}
}
