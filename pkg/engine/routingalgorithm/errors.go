package routingalgorithm

import "errors"

var (
	ErrNoNearbyRoad    = errors.New("no road usable by the travel mode near the coordinate")
	ErrSearchExhausted = errors.New("route search exhausted without reaching the destination")
	ErrModeRestricted  = errors.New("destination is only reachable over roads closed to the travel mode")
)
