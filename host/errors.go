package host

import "errors"

var (
	ErrNoSuchTrack  = errors.New("no such track")
	ErrBadArguments = errors.New("bad osc arguments")
	ErrLoopStopped  = errors.New("event loop stopped")
)
