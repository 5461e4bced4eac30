package game

// TapLimits bounds server-side tap acceptance. All values are milliseconds
// of server wall clock; the client timestamp is only ever compared, never
// stored.
type TapLimits struct {
	ClockSkewWindowMs int64
	MinIntervalMs     int64
}

// NewTapLimits derives the per-tap minimum interval from a taps-per-second
// ceiling.
func NewTapLimits(maxTapsPerSecond int, clockSkewWindowMs int64) TapLimits {
	return TapLimits{
		ClockSkewWindowMs: clockSkewWindowMs,
		MinIntervalMs:     int64(1000 / maxTapsPerSecond),
	}
}

// Validate checks one submitted tap against the player's timing state.
// lastTapAt is the server time (unix ms) of the player's last accepted tap,
// 0 before the first. Checks run in order: clock skew first, then rate.
// Rejection must leave the caller's state untouched; acceptance is signalled
// by a nil error and the caller records lastTapAt = now.
func (l TapLimits) Validate(lastTapAt, now, clientTimestampMs int64) error {
	skew := now - clientTimestampMs
	if skew < 0 {
		skew = -skew
	}
	if skew > l.ClockSkewWindowMs {
		return ErrClockSkew
	}
	if now-lastTapAt < l.MinIntervalMs {
		return ErrRateLimited
	}
	return nil
}
