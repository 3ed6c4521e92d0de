package envrec

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RewardRange is an inclusive range of raw reward values.
//
// Rewards outside the range are clipped to the bounds
// before being recorded.
type RewardRange struct {
	Min float64
	Max float64
}

// InfiniteRewardRange creates the unbounded range
// (-Inf, +Inf), which leaves rewards unclipped.
func InfiniteRewardRange() RewardRange {
	return RewardRange{Min: math.Inf(-1), Max: math.Inf(1)}
}

// IsFinite reports whether both bounds are finite.
func (r RewardRange) IsFinite() bool {
	return !math.IsInf(r.Min, 0) && !math.IsInf(r.Max, 0)
}

// Clip clamps x to the range.
func (r RewardRange) Clip(x float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, x))
}

// NumRewards returns the number of distinct values that
// clipped, rounded rewards can take.
//
// The second return value is false when a bound is
// infinite, in which case the count is unknown.
func (r RewardRange) NumRewards() (int, bool) {
	if !r.IsFinite() {
		return 0, false
	}
	return int(math.Round(r.Max)-math.Round(r.Min)) + 1, true
}

// ProcessRewards clips raw rewards to the range, rounds
// them to the nearest integer, and casts them to int64.
//
// It is deterministic and stateless, and it never
// modifies its argument.
func ProcessRewards(r RewardRange, rewards []float64) []int64 {
	res := make([]int64, len(rewards))
	for i, x := range rewards {
		res[i] = int64(math.Round(r.Clip(x)))
	}
	return res
}

// TotalRewards sums the raw rewards of each trajectory.
func TotalRewards(trajs []*Trajectory) []float64 {
	res := make([]float64, len(trajs))
	for i, t := range trajs {
		res[i] = t.TotalRawReward()
	}
	return res
}

// MeanReward computes the mean of the trajectories' total
// raw rewards.
func MeanReward(trajs []*Trajectory) float64 {
	if len(trajs) == 0 {
		return 0
	}
	return stat.Mean(TotalRewards(trajs), nil)
}
