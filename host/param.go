package host

import "oslo-surface/surface"

// ParamKind identifies which mixer or device value a parameter mirrors
type ParamKind int

const (
	KindVolume ParamKind = iota
	KindPan
	KindSend
	KindDevice
	KindReturnVolume
	KindMasterVolume
	KindMasterPan
)

// ParamRef addresses a parameter on the host. Index is the send or device
// parameter index and is unused for volume and pan.
type ParamRef struct {
	Kind  ParamKind
	Track int
	Index int
}

// Param mirrors one host parameter. Changes made by the surface go out through
// the song's Outbound; changes reported by the host come in through Update.
type Param struct {
	ref   ParamRef
	name  string
	value float64
	min   float64
	max   float64
	song  *Song
}

func newParam(song *Song, ref ParamRef, name string, min, max float64) *Param {
	return &Param{ref: ref, name: name, min: min, max: max, song: song}
}

func (p *Param) Name() string   { return p.name }
func (p *Param) Value() float64 { return p.value }
func (p *Param) Min() float64   { return p.min }
func (p *Param) Max() float64   { return p.max }
func (p *Param) Ref() ParamRef  { return p.ref }

// SetValue changes the value from the surface side and forwards it to the host
func (p *Param) SetValue(v float64) {
	v = p.clamp(v)
	if v == p.value {
		return
	}
	p.value = v
	if p.song != nil && p.song.out != nil {
		p.song.out.ParamChanged(p.ref, v)
	}
}

// Update records a value reported by the host without echoing it back
func (p *Param) Update(v float64) {
	p.value = p.clamp(v)
}

func (p *Param) clamp(v float64) float64 {
	return min(max(v, p.min), p.max)
}

// Mute mirrors a track mute
type Mute struct {
	track int
	on    bool
	song  *Song
}

func (m *Mute) On() bool { return m.on }

// Set changes the mute from the surface side
func (m *Mute) Set(on bool) {
	if on == m.on {
		return
	}
	m.on = on
	if m.song != nil && m.song.out != nil {
		m.song.out.MuteChanged(m.track, on)
	}
}

// Device is the first device on a track, reduced to its parameter list
type Device struct {
	name   string
	params []*Param
}

func (d *Device) Name() string { return d.name }

func (d *Device) Parameters() []surface.Parameter {
	out := make([]surface.Parameter, len(d.params))
	for i, p := range d.params {
		out[i] = p
	}
	return out
}

// ParamSpec describes a device parameter reported by the host
type ParamSpec struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}
