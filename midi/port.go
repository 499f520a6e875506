package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"oslo-surface/debug"
)

var ErrPortNotFound = errors.New("midi port not found")

var sendCount uint64

// Conn is an open controller connection
type Conn interface {
	Name() string
	Send(msg gomidi.Message) error
	// Listen delivers inbound messages on the driver's goroutine
	Listen(fn func(msg gomidi.Message)) error
	Close() error
}

// Port is a controller reached through a pair of driver ports with the same name
type Port struct {
	name    string
	inPort  drivers.In
	outPort drivers.Out
	send    func(msg gomidi.Message) error
	stop    func()
}

// OpenPort opens the input and output ports whose names contain match
// (case-insensitive). A controller without an output port is opened input only.
func OpenPort(match string) (*Port, error) {
	in, err := findIn(match)
	if err != nil {
		return nil, err
	}
	out, _ := findOut(match)
	return NewPort(in.String(), in, out)
}

// NewPort wraps already discovered driver ports
func NewPort(name string, inPort drivers.In, outPort drivers.Out) (*Port, error) {
	p := &Port{name: name, inPort: inPort, outPort: outPort}
	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		p.send = send
	}
	return p, nil
}

func (p *Port) Name() string { return p.name }

func (p *Port) Send(msg gomidi.Message) error {
	if p.send == nil {
		return nil
	}
	n := atomic.AddUint64(&sendCount, 1)
	if n%500 == 0 {
		debug.Log("midi-send", "count=%d", n)
	}
	return p.send(msg)
}

func (p *Port) Listen(fn func(msg gomidi.Message)) error {
	if p.inPort == nil {
		return nil
	}
	if p.stop != nil {
		p.stop()
	}
	stop, err := gomidi.ListenTo(p.inPort, func(msg gomidi.Message, timestampms int32) {
		fn(msg)
	})
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	p.stop = stop
	return nil
}

func (p *Port) Close() error {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	var errs []error
	if p.inPort != nil && p.inPort.IsOpen() {
		errs = append(errs, p.inPort.Close())
	}
	if p.outPort != nil && p.outPort.IsOpen() {
		errs = append(errs, p.outPort.Close())
	}
	return errors.Join(errs...)
}

// PortInfo describes one port seen by the driver
type PortInfo struct {
	Name   string
	Input  bool
	Output bool
}

// ListPorts returns every port the driver reports, merged by name
func ListPorts() []PortInfo {
	var out []PortInfo
	index := map[string]int{}
	entry := func(name string) *PortInfo {
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, PortInfo{Name: name})
		}
		return &out[i]
	}
	for _, in := range gomidi.GetInPorts() {
		entry(in.String()).Input = true
	}
	for _, o := range gomidi.GetOutPorts() {
		entry(o.String()).Output = true
	}
	return out
}

// Matches reports whether a port name contains match, ignoring case
func Matches(name, match string) bool {
	return match != "" && strings.Contains(strings.ToLower(name), strings.ToLower(match))
}

func findIn(match string) (drivers.In, error) {
	for _, in := range gomidi.GetInPorts() {
		if Matches(in.String(), match) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("input %q: %w", match, ErrPortNotFound)
}

func findOut(match string) (drivers.Out, error) {
	for _, out := range gomidi.GetOutPorts() {
		if Matches(out.String(), match) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("output %q: %w", match, ErrPortNotFound)
}
