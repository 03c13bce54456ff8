// Package xp holds the experience rules: difficulty table, level curve, daily
// soft cap and streak milestones. Everything here is pure; persistence lives in
// the services package.
package xp

import (
	"fmt"
	"math"
)

// Difficulty is the size tier of a task.
type Difficulty string

const (
	DifficultyS  Difficulty = "S"
	DifficultyM  Difficulty = "M"
	DifficultyL  Difficulty = "L"
	DifficultyXL Difficulty = "XL"
)

// TaskDifficulty is applied to every task award. Operators cannot tune it per task.
const TaskDifficulty = DifficultyM

var difficultyXP = map[Difficulty]int{
	DifficultyS:  5,
	DifficultyM:  15,
	DifficultyL:  35,
	DifficultyXL: 70,
}

const (
	levelBaseXP     = 2500
	levelGrowthRate = 1.2

	// StreakMilestoneDays is the period of the streak bonus.
	StreakMilestoneDays = 7
	// StreakBonusXP is granted when a streak reaches a milestone.
	StreakBonusXP = 60
)

// softCapTier multipliers are kept in tenths so the weighted sum stays integral.
type softCapTier struct {
	upTo   int // exclusive; 0 means unbounded
	tenths int
}

var softCapTiers = []softCapTier{
	{upTo: 200, tenths: 10},
	{upTo: 400, tenths: 5},
	{upTo: 0, tenths: 2},
}

// TierShare describes how much of a candidate amount fell into one soft-cap tier.
type TierShare struct {
	RangeStart int     `json:"range_start"`
	RangeEnd   int     `json:"range_end"`
	BaseXP     int     `json:"base_xp"`
	Multiplier float64 `json:"multiplier"`
	AwardedXP  int     `json:"awarded_xp"`
}

// SoftCapResult is the outcome of ApplyDailySoftCap.
type SoftCapResult struct {
	AwardedXP int         `json:"awarded_xp"`
	Breakdown []TierShare `json:"breakdown"`
}

// BaseXPForDifficulty returns the nominal XP of a difficulty tier.
func BaseXPForDifficulty(d Difficulty) (int, error) {
	v, ok := difficultyXP[d]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, string(d))
	}
	return v, nil
}

// XPRequiredForLevel returns round(2500 * 1.2^(level-1)).
func XPRequiredForLevel(level int) (int, error) {
	if level < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	v := math.Round(levelBaseXP * math.Pow(levelGrowthRate, float64(level-1)))
	if math.IsInf(v, 0) || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d is beyond the level curve", ErrInvalidLevel, level)
	}
	return int(v), nil
}

// ApplyDailySoftCap scales candidate according to how much XP was already
// granted today. The candidate is split across the tiers it straddles and the
// weighted sum is floored.
func ApplyDailySoftCap(dailySoFar, candidate int) (SoftCapResult, error) {
	if dailySoFar < 0 {
		return SoftCapResult{}, fmt.Errorf("%w: daily total %d", ErrInvalidAmount, dailySoFar)
	}
	if candidate < 0 {
		return SoftCapResult{}, fmt.Errorf("%w: candidate %d", ErrInvalidAmount, candidate)
	}

	res := SoftCapResult{Breakdown: []TierShare{}}
	remaining := candidate
	cursor := dailySoFar
	totalTenths := 0

	for _, tier := range softCapTiers {
		if remaining <= 0 {
			break
		}
		if tier.upTo > 0 && cursor >= tier.upTo {
			continue
		}
		take := remaining
		if tier.upTo > 0 && tier.upTo-cursor < take {
			take = tier.upTo - cursor
		}
		weighted := take * tier.tenths
		totalTenths += weighted
		res.Breakdown = append(res.Breakdown, TierShare{
			RangeStart: cursor,
			RangeEnd:   cursor + take,
			BaseXP:     take,
			Multiplier: float64(tier.tenths) / 10,
			AwardedXP:  weighted / 10,
		})
		remaining -= take
		cursor += take
	}

	res.AwardedXP = totalTenths / 10
	return res, nil
}

// StreakMilestoneBonus returns StreakBonusXP on every positive multiple of
// StreakMilestoneDays and 0 otherwise.
func StreakMilestoneBonus(newStreakDays int) (int, error) {
	if newStreakDays < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStreakDays, newStreakDays)
	}
	if newStreakDays%StreakMilestoneDays == 0 {
		return StreakBonusXP, nil
	}
	return 0, nil
}
