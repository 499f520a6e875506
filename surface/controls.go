package surface

// MaxValue is the top of the 7-bit MIDI value range
const MaxValue = 127

// Encoder is a physical knob or fader that can drive one host parameter.
type Encoder interface {
	ConnectTo(p Parameter)
	Release()
}

// Button is a physical button with an LED.
type Button interface {
	SendValue(v uint8)
	// OnPress registers fn to be called for every press; only one handler is kept.
	OnPress(fn func())
}

// ValueControl is a control that receives raw values from the hardware and
// can echo a value back, e.g. the relative track-select encoder.
type ValueControl interface {
	SendValue(v uint8)
	OnValue(fn func(v uint8))
}

// Strip is the set of controls belonging to one mixer channel. Nil members
// are simply skipped.
type Strip struct {
	Volume Encoder
	Pan    Encoder
	Sends  []Encoder
	Mute   Button
	Param  Encoder
}

// Controls is everything the surface binds. Strips are the windowed channels.
type Controls struct {
	Strips        []Strip
	Master        Strip
	ReturnVolumes []Encoder
	TrackSelect   ValueControl
	Play          Button
}
