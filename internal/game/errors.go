package game

import "errors"

var (
	ErrClockSkew   = errors.New("tap timestamp outside the allowed clock skew window")
	ErrRateLimited = errors.New("tap submitted faster than the allowed rate")
)
