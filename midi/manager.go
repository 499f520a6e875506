package midi

import (
	"context"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"oslo-surface/debug"
)

// DeviceEvent is emitted when the controller connects or disconnects
type DeviceEvent struct {
	Type DeviceEventType
	Conn Conn
	ID   string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceConnected {
		return "connected"
	}
	return "disconnected"
}

// DefaultPollInterval is how often the driver is rescanned for hot-plugged ports
const DefaultPollInterval = time.Second

// scanTimeout bounds a driver scan; CoreMIDI can hang
const scanTimeout = 3 * time.Second

// DeviceManager handles hot-plug detection of the controller. Input ports
// whose name contains the configured match are opened as they appear.
type DeviceManager struct {
	match    string
	pollRate time.Duration

	listPorts func() []string
	open      func(name string) (Conn, error)

	conns  map[string]Conn
	mu     sync.RWMutex
	events chan DeviceEvent
}

// NewDeviceManager creates a manager for ports matching match
func NewDeviceManager(match string, pollRate time.Duration) *DeviceManager {
	if pollRate <= 0 {
		pollRate = DefaultPollInterval
	}
	return &DeviceManager{
		match:     match,
		pollRate:  pollRate,
		listPorts: inPortNames,
		open: func(name string) (Conn, error) {
			return OpenPort(name)
		},
		conns:  make(map[string]Conn),
		events: make(chan DeviceEvent, 16),
	}
}

// Events returns a channel of connect/disconnect events. It is closed when
// Run returns.
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Conns returns a snapshot of open connections
func (dm *DeviceManager) Conns() map[string]Conn {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Conn, len(dm.conns))
	for k, v := range dm.conns {
		out[k] = v
	}
	return out
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

func (dm *DeviceManager) scan(ctx context.Context) {
	ch := make(chan []string, 1)
	go func() {
		ch <- dm.listPorts()
	}()

	var names []string
	select {
	case names = <-ch:
	case <-time.After(scanTimeout):
		// driver is hung; skip this scan
		debug.Log("midi", "port scan timed out")
		return
	case <-ctx.Done():
		return
	}

	seen := make(map[string]bool)
	for _, name := range names {
		if !Matches(name, dm.match) {
			continue
		}
		seen[name] = true

		dm.mu.RLock()
		_, exists := dm.conns[name]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		conn, err := dm.open(name)
		if err != nil {
			debug.Log("midi", "open %s: %v", name, err)
			continue
		}

		dm.mu.Lock()
		dm.conns[name] = conn
		dm.mu.Unlock()

		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Conn: conn, ID: name})
	}

	dm.mu.Lock()
	var gone []string
	for id := range dm.conns {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		dm.conns[id].Close()
		delete(dm.conns, id)
	}
	dm.mu.Unlock()

	for _, id := range gone {
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) {
	debug.Log("midi", "%s %s", ev.ID, ev.Type)
	select {
	case dm.events <- ev:
	case <-ctx.Done():
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.conns {
		c.Close()
	}
	dm.conns = make(map[string]Conn)
}

func inPortNames() []string {
	ins := gomidi.GetInPorts()
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}
