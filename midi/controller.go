package midi

import (
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"oslo-surface/debug"
	"oslo-surface/surface"
)

// Sender writes one message to a device
type Sender func(msg gomidi.Message) error

// Output forwards messages to whichever device is currently connected.
// Messages sent while nothing is connected are dropped.
type Output struct {
	send Sender
}

// Set swaps the connected device; nil disconnects
func (o *Output) Set(send Sender) { o.send = send }

// Connected reports whether a device is attached
func (o *Output) Connected() bool { return o.send != nil }

// Send writes msg to the connected device
func (o *Output) Send(msg gomidi.Message) {
	if o.send == nil {
		return
	}
	if err := o.send(msg); err != nil {
		debug.Named("midi").Warn("send failed", zap.Stringer("msg", msg), zap.Error(err))
	}
}

// Address is a MIDI channel (0-15) and a CC or note number
type Address struct {
	Channel uint8
	ID      uint8
}

// Numbers lays out count consecutive controls eight per channel, starting at
// base on baseChannel and wrapping onto the next channel.
func Numbers(base, baseChannel uint8, count int) []Address {
	out := make([]Address, count)
	for i := range out {
		out[i] = Address{
			Channel: baseChannel + uint8(i/8),
			ID:      base + uint8(i%8),
		}
	}
	return out
}

// receiver handles the value of an inbound message addressed to a control
type receiver interface {
	receive(value uint8)
}

// Encoder is an absolute CC knob. Incoming values are scaled onto the bound
// parameter's range; binding sends the current value back as feedback.
type Encoder struct {
	addr  Address
	out   *Output
	param surface.Parameter
}

func newEncoder(addr Address, out *Output) *Encoder {
	return &Encoder{addr: addr, out: out}
}

func (e *Encoder) Address() Address { return e.addr }

// Parameter returns the bound parameter, or nil
func (e *Encoder) Parameter() surface.Parameter { return e.param }

func (e *Encoder) ConnectTo(p surface.Parameter) {
	e.param = p
	e.Refresh()
}

func (e *Encoder) Release() { e.param = nil }

// Refresh sends the bound parameter's value to the device
func (e *Encoder) Refresh() {
	if e.param == nil {
		return
	}
	e.out.Send(gomidi.ControlChange(e.addr.Channel, e.addr.ID, toMIDI(e.param)))
}

func (e *Encoder) receive(value uint8) {
	if e.param == nil {
		return
	}
	e.param.SetValue(fromMIDI(e.param, value))
}

// RelativeEncoder is an endless CC knob in two's complement mode
type RelativeEncoder struct {
	addr    Address
	out     *Output
	onValue func(uint8)
}

func newRelativeEncoder(addr Address, out *Output) *RelativeEncoder {
	return &RelativeEncoder{addr: addr, out: out}
}

func (e *RelativeEncoder) Address() Address { return e.addr }

func (e *RelativeEncoder) SendValue(v uint8) {
	e.out.Send(gomidi.ControlChange(e.addr.Channel, e.addr.ID, min(v, surface.MaxValue)))
}

func (e *RelativeEncoder) OnValue(fn func(uint8)) { e.onValue = fn }

func (e *RelativeEncoder) receive(value uint8) {
	if e.onValue != nil {
		e.onValue(value)
	}
}

// Button is a momentary note button with an LED
type Button struct {
	addr    Address
	out     *Output
	onPress func()
}

func newButton(addr Address, out *Output) *Button {
	return &Button{addr: addr, out: out}
}

func (b *Button) Address() Address { return b.addr }

func (b *Button) SendValue(v uint8) {
	b.out.Send(gomidi.NoteOn(b.addr.Channel, b.addr.ID, min(v, surface.MaxValue)))
}

func (b *Button) OnPress(fn func()) { b.onPress = fn }

// velocity 0 is a release
func (b *Button) receive(velocity uint8) {
	if velocity > 0 && b.onPress != nil {
		b.onPress()
	}
}

func toMIDI(p surface.Parameter) uint8 {
	span := p.Max() - p.Min()
	if span <= 0 {
		return 0
	}
	v := math.Round((p.Value() - p.Min()) / span * surface.MaxValue)
	return uint8(min(max(v, 0), surface.MaxValue))
}

func fromMIDI(p surface.Parameter, value uint8) float64 {
	return p.Min() + (p.Max()-p.Min())*float64(min(value, surface.MaxValue))/surface.MaxValue
}
