package frame

import "time"

// Params is handed to every component update during one tick.
type Params struct {
	// DeltaTime is the time elapsed since the previous tick.
	DeltaTime time.Duration
	// Frame counts ticks from zero.
	Frame uint64
	// StaticDrawCalls collects static geometry for this frame.
	StaticDrawCalls *DrawList
}

// NewParams returns params for one tick with an empty draw list.
func NewParams(frame uint64, dt time.Duration, list *DrawList) *Params {
	if list == nil {
		list = NewDrawList(0)
	}
	return &Params{DeltaTime: dt, Frame: frame, StaticDrawCalls: list}
}

// Seconds returns DeltaTime as float seconds.
func (p *Params) Seconds() float32 {
	return float32(p.DeltaTime.Seconds())
}
