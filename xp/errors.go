package xp

import "errors"

// Rule engine input-contract violations. They signal caller bugs and are never
// expected with valid data.
var (
	ErrUnknownDifficulty = errors.New("xp: unknown difficulty")
	ErrInvalidLevel      = errors.New("xp: invalid level")
	ErrInvalidAmount     = errors.New("xp: invalid amount")
	ErrInvalidStreakDays = errors.New("xp: invalid streak days")
	ErrInvalidTimestamp  = errors.New("xp: invalid timestamp")
)
