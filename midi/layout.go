package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"oslo-surface/surface"
)

// MIDI message kinds used for routing
const (
	kindCC   uint8 = 0xB0
	kindNote uint8 = 0x90
)

// DefaultStrips is the number of channel strips on the Oslo 1989 layout
const DefaultStrips = 11

var (
	ErrInvalidLayout  = errors.New("invalid layout")
	ErrLayoutConflict = errors.New("two controls share a MIDI address")
)

// Layout is the controller's MIDI map. Strip controls start at a base number
// on TrackChannel and continue eight per channel.
type Layout struct {
	TrackChannel  uint8   `mapstructure:"track_channel"`
	GlobalChannel uint8   `mapstructure:"global_channel"`
	Volume        uint8   `mapstructure:"volume"`
	Pan           uint8   `mapstructure:"pan"`
	Sends         []uint8 `mapstructure:"sends"`
	Mute          uint8   `mapstructure:"mute"`
	Param         uint8   `mapstructure:"param"`
	TrackSelect   uint8   `mapstructure:"track_select"`
	ReturnVolumes []uint8 `mapstructure:"return_volumes"`
	MasterVolume  uint8   `mapstructure:"master_volume"`
	MasterPan     uint8   `mapstructure:"master_pan"`
	Play          uint8   `mapstructure:"play"`
}

// DefaultLayout is the Faderfox factory mapping for the Oslo 1989 setup
func DefaultLayout() Layout {
	return Layout{
		TrackChannel:  12,
		GlobalChannel: 13,
		Volume:        40,
		Pan:           32,
		Sends:         []uint8{16, 24},
		Mute:          104,
		Param:         8,
		TrackSelect:   59,
		ReturnVolumes: []uint8{27, 19, 11, 3},
		MasterVolume:  43,
		MasterPan:     35,
		Play:          107,
	}
}

type route struct {
	kind uint8
	addr Address
}

// Controls is the full set of hardware elements for one layout plus the
// routing table for inbound messages.
type Controls struct {
	layout Layout
	out    *Output

	strips      []surface.Strip
	master      surface.Strip
	returns     []*Encoder
	trackSelect *RelativeEncoder
	play        *Button
	mutes       []*Button

	routes map[route]receiver
}

// NewControls builds every element of layout for size strips
func NewControls(layout Layout, size int, out *Output) (*Controls, error) {
	if size < 1 {
		return nil, fmt.Errorf("%d strips: %w", size, ErrInvalidLayout)
	}
	if layout.TrackChannel+uint8((size-1)/8) > 15 || layout.GlobalChannel > 15 {
		return nil, fmt.Errorf("channel out of range: %w", ErrInvalidLayout)
	}
	if out == nil {
		out = &Output{}
	}
	c := &Controls{
		layout: layout,
		out:    out,
		routes: make(map[route]receiver),
	}

	volumes, err := c.encoders(layout.Volume, size)
	if err != nil {
		return nil, err
	}
	pans, err := c.encoders(layout.Pan, size)
	if err != nil {
		return nil, err
	}
	params, err := c.encoders(layout.Param, size)
	if err != nil {
		return nil, err
	}
	sends := make([][]*Encoder, len(layout.Sends))
	for i, base := range layout.Sends {
		if sends[i], err = c.encoders(base, size); err != nil {
			return nil, err
		}
	}

	muteAddrs := Numbers(layout.Mute, layout.TrackChannel, size)
	c.strips = make([]surface.Strip, size)
	for i := range c.strips {
		mute := newButton(muteAddrs[i], out)
		if err := c.add(kindNote, mute.addr, mute); err != nil {
			return nil, err
		}
		c.mutes = append(c.mutes, mute)

		strip := surface.Strip{
			Volume: volumes[i],
			Pan:    pans[i],
			Mute:   mute,
			Param:  params[i],
		}
		for _, row := range sends {
			strip.Sends = append(strip.Sends, row[i])
		}
		c.strips[i] = strip
	}

	global := func(id uint8) Address { return Address{Channel: layout.GlobalChannel, ID: id} }

	masterVolume := newEncoder(global(layout.MasterVolume), out)
	masterPan := newEncoder(global(layout.MasterPan), out)
	for _, e := range []*Encoder{masterVolume, masterPan} {
		if err := c.add(kindCC, e.addr, e); err != nil {
			return nil, err
		}
	}
	c.master = surface.Strip{Volume: masterVolume, Pan: masterPan}

	for _, id := range layout.ReturnVolumes {
		e := newEncoder(global(id), out)
		if err := c.add(kindCC, e.addr, e); err != nil {
			return nil, err
		}
		c.returns = append(c.returns, e)
	}

	c.trackSelect = newRelativeEncoder(Address{Channel: layout.TrackChannel, ID: layout.TrackSelect}, out)
	if err := c.add(kindCC, c.trackSelect.addr, c.trackSelect); err != nil {
		return nil, err
	}
	c.play = newButton(global(layout.Play), out)
	if err := c.add(kindNote, c.play.addr, c.play); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controls) encoders(base uint8, size int) ([]*Encoder, error) {
	addrs := Numbers(base, c.layout.TrackChannel, size)
	out := make([]*Encoder, size)
	for i, addr := range addrs {
		out[i] = newEncoder(addr, c.out)
		if err := c.add(kindCC, addr, out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Controls) add(kind uint8, addr Address, r receiver) error {
	if int(addr.ID) > surface.MaxValue {
		return fmt.Errorf("id %d on channel %d: %w", addr.ID, addr.Channel, ErrInvalidLayout)
	}
	key := route{kind: kind, addr: addr}
	if _, taken := c.routes[key]; taken {
		return fmt.Errorf("channel %d id %d: %w", addr.Channel, addr.ID, ErrLayoutConflict)
	}
	c.routes[key] = r
	return nil
}

// Surface returns the elements in the shape the surface binds
func (c *Controls) Surface() surface.Controls {
	returns := make([]surface.Encoder, len(c.returns))
	for i, e := range c.returns {
		returns[i] = e
	}
	return surface.Controls{
		Strips:        c.strips,
		Master:        c.master,
		ReturnVolumes: returns,
		TrackSelect:   c.trackSelect,
		Play:          c.play,
	}
}

// Output returns the shared output the elements send through
func (c *Controls) Output() *Output { return c.out }

// Size returns the number of strips
func (c *Controls) Size() int { return len(c.strips) }

// Dispatch routes an inbound message to the element at its address and
// reports whether one was found.
func (c *Controls) Dispatch(msg gomidi.Message) bool {
	var ch, id, value uint8
	var key route
	switch {
	case msg.GetControlChange(&ch, &id, &value):
		key = route{kind: kindCC, addr: Address{Channel: ch, ID: id}}
	case msg.GetNoteOn(&ch, &id, &value):
		key = route{kind: kindNote, addr: Address{Channel: ch, ID: id}}
	case msg.GetNoteOff(&ch, &id, &value):
		key = route{kind: kindNote, addr: Address{Channel: ch, ID: id}}
		value = 0
	default:
		return false
	}
	r, ok := c.routes[key]
	if !ok {
		return false
	}
	r.receive(value)
	return true
}

// Clear turns off every LED on the controller
func (c *Controls) Clear() {
	for _, b := range c.mutes {
		b.SendValue(0)
	}
	c.play.SendValue(0)
}
