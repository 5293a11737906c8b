package app

import "github.com/dkeye/Stream/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a recipient whose send queue is full.
type Policy interface {
	OnBackPressure(target core.ConnectionInfo) BackpressureAction
}

// SimplePolicy closes slow connections; they then go through the normal
// disconnect path and their memberships are purged.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnectionInfo) BackpressureAction {
	return KickMember
}

// DropPolicy only drops the frame for the slow recipient.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.ConnectionInfo) BackpressureAction {
	return DropFrame
}
