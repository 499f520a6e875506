package surface

import "math"

const (
	BeatsPerBar       = 4
	SixteenthsPerBeat = 4

	// noPosition sits below any real song time so the first update always
	// registers as a new beat.
	noPosition = -1.0
)

// Sixteenth thresholds are compared against the absolute song position, not
// the position within the beat. They only line up with real sixteenths during
// the first beat after a reset; past that every update advances the phase by
// one. Beat ticks reset the phase to 1 before the comparison runs again.
var sixteenthThresholds = [SixteenthsPerBeat - 1]float64{0.25, 0.5, 0.75}

// TickKind identifies the granularity of a clock tick
type TickKind int

const (
	TickSixteenth TickKind = iota
	TickBeat
	TickBar
)

func (k TickKind) String() string {
	switch k {
	case TickSixteenth:
		return "sixteenth"
	case TickBeat:
		return "beat"
	case TickBar:
		return "bar"
	default:
		return "unknown"
	}
}

// Tick is emitted by PhaseClock
type Tick struct {
	Kind      TickKind
	Position  float64
	Bar       int
	Beat      int
	Sixteenth int
}

// PhaseClock derives bar, beat and sixteenth ticks from transport position
// updates (in quarter notes). Positions may repeat, jump forward, or jump
// backward on loop and seek.
type PhaseClock struct {
	lastPosition float64
	sixteenth    int
	beat         int
	bar          int

	sixteenths Listeners[Tick]
	beats      Listeners[Tick]
	bars       Listeners[Tick]
}

// NewPhaseClock creates a clock that fires on its first update
func NewPhaseClock() *PhaseClock {
	return &PhaseClock{
		lastPosition: noPosition,
		sixteenth:    1,
		beat:         1,
		bar:          1,
	}
}

func (c *PhaseClock) OnSixteenth(fn func(Tick)) *Subscription { return c.sixteenths.Add(fn) }
func (c *PhaseClock) OnBeat(fn func(Tick)) *Subscription      { return c.beats.Add(fn) }
func (c *PhaseClock) OnBar(fn func(Tick)) *Subscription       { return c.bars.Add(fn) }

// Phase returns the current bar, beat (1-4) and sixteenth (1-4)
func (c *PhaseClock) Phase() (bar, beat, sixteenth int) {
	return c.bar, c.beat, c.sixteenth
}

// LastPosition returns the position seen on the previous update
func (c *PhaseClock) LastPosition() float64 {
	return c.lastPosition
}

// OnPositionChanged feeds a new transport position into the clock.
// Negative and non-finite positions have no bar or beat and are ignored.
func (c *PhaseClock) OnPositionChanged(position float64) {
	if !ValidPosition(position) {
		return
	}
	whole := math.Floor(position)
	if position < c.lastPosition || whole > math.Floor(c.lastPosition) {
		c.beat = int(whole)%BeatsPerBar + 1
		if c.beat == 1 {
			c.bar = int(math.Floor(position/BeatsPerBar)) + 1
			c.bars.Emit(c.tick(TickBar, position))
		}
		c.sixteenth = 1
		c.beats.Emit(c.tick(TickBeat, position))
		c.sixteenths.Emit(c.tick(TickSixteenth, position))
	}

	// at most one step per update
	if c.sixteenth <= len(sixteenthThresholds) && position > sixteenthThresholds[c.sixteenth-1] {
		c.sixteenth++
		c.sixteenths.Emit(c.tick(TickSixteenth, position))
	}

	c.lastPosition = position
}

// ValidPosition reports whether position is a finite song time at or after zero
func ValidPosition(position float64) bool {
	return position >= 0 && !math.IsInf(position, 1)
}

func (c *PhaseClock) tick(kind TickKind, position float64) Tick {
	return Tick{
		Kind:      kind,
		Position:  position,
		Bar:       c.bar,
		Beat:      c.beat,
		Sixteenth: c.sixteenth,
	}
}
