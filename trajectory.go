package envrec

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// A TimeStep is one recorded interaction with an
// environment.
//
// Its ordinal position within the trajectory is given by
// its index in Trajectory.TimeSteps.
type TimeStep struct {
	Observation []float64

	// Action is the action taken from this time-step.
	// It is nil on the most recent time-step of an
	// active trajectory and on terminal time-steps.
	Action []float64

	RawReward       float64
	ProcessedReward int64
	Done            bool
}

// A Trajectory is the ordered history of one episode for
// one environment slot.
type Trajectory struct {
	id        string
	timeSteps []*TimeStep
	completed bool
}

func newTrajectory() *Trajectory {
	return &Trajectory{id: uuid.NewString()}
}

// ID returns a unique identifier for the trajectory.
func (t *Trajectory) ID() string {
	return t.id
}

// TimeSteps returns the recorded time-steps in order.
//
// The returned slice is shared with the trajectory and
// should not be modified.
func (t *Trajectory) TimeSteps() []*TimeStep {
	return t.timeSteps
}

// NumTimeSteps returns the number of recorded time-steps.
func (t *Trajectory) NumTimeSteps() int {
	return len(t.timeSteps)
}

// IsActive reports whether the trajectory has recorded at
// least one time-step and has not been completed.
func (t *Trajectory) IsActive() bool {
	return len(t.timeSteps) > 0 && !t.completed
}

// IsCompleted reports whether the trajectory has been
// moved to a completed list.
func (t *Trajectory) IsCompleted() bool {
	return t.completed
}

// LastTimeStep returns the most recent time-step.
//
// It returns nil for an empty trajectory.
func (t *Trajectory) LastTimeStep() *TimeStep {
	if len(t.timeSteps) == 0 {
		return nil
	}
	return t.timeSteps[len(t.timeSteps)-1]
}

// TotalRawReward sums the raw rewards over the
// trajectory.
func (t *Trajectory) TotalRawReward() float64 {
	rewards := make([]float64, 0, len(t.timeSteps))
	for _, ts := range t.timeSteps {
		rewards = append(rewards, ts.RawReward)
	}
	return floats.Sum(rewards)
}

// TotalProcessedReward sums the processed rewards over
// the trajectory.
func (t *Trajectory) TotalProcessedReward() int64 {
	var sum int64
	for _, ts := range t.timeSteps {
		sum += ts.ProcessedReward
	}
	return sum
}

func (t *Trajectory) addTimeStep(ts *TimeStep) {
	t.timeSteps = append(t.timeSteps, ts)
}

func (t *Trajectory) setLastAction(action []float64) {
	t.timeSteps[len(t.timeSteps)-1].Action = action
}

// A BatchTrajectory tracks one trajectory per environment
// slot, plus the list of trajectories completed so far.
//
// Slots are reused across episodes: resetting a slot
// moves its in-progress trajectory to the completed list
// and starts a fresh one.
type BatchTrajectory struct {
	slots     []*Trajectory
	completed []*Trajectory
}

// NewBatchTrajectory creates a store with batchSize empty
// slots.
func NewBatchTrajectory(batchSize int) *BatchTrajectory {
	if batchSize < 1 {
		panic("batch size must be at least 1")
	}
	slots := make([]*Trajectory, batchSize)
	for i := range slots {
		slots[i] = newTrajectory()
	}
	return &BatchTrajectory{slots: slots}
}

// BatchSize returns the number of slots.
func (b *BatchTrajectory) BatchSize() int {
	return len(b.slots)
}

// Trajectories returns the current slot trajectories,
// indexed by environment slot.
func (b *BatchTrajectory) Trajectories() []*Trajectory {
	return b.slots
}

// CompletedTrajectories returns the trajectories
// completed so far, oldest first.
func (b *BatchTrajectory) CompletedTrajectories() []*Trajectory {
	return b.completed
}

// NumCompletedTimeSteps returns the total number of
// time-steps across all completed trajectories.
func (b *BatchTrajectory) NumCompletedTimeSteps() int {
	var res int
	for _, t := range b.completed {
		res += t.NumTimeSteps()
	}
	return res
}

// Reset starts fresh trajectories at the given slots,
// seeding each with its initial observation.
//
// A slot with an in-progress trajectory has that
// trajectory moved to the completed list first.
// This is the only way a done trajectory transitions to
// the completed list, which lets the caller inspect a
// just-finished trajectory before resetting its slot.
func (b *BatchTrajectory) Reset(indices []int, observations [][]float64) error {
	if len(indices) != len(observations) {
		return ErrBatchMismatch
	}
	for i, index := range indices {
		if index < 0 || index >= len(b.slots) {
			return fmt.Errorf("reset trajectories: index %d out of range [0, %d)",
				index, len(b.slots))
		}
		if b.slots[index].IsActive() {
			b.complete(index)
		}
		b.slots[index].addTimeStep(&TimeStep{Observation: observations[i]})
	}
	return nil
}

// Step appends one time-step to every slot's trajectory.
//
// The action is recorded on the previous time-step, since
// it was taken from that time-step's observation; the new
// time-step holds the resulting observation, rewards, and
// done flag.
//
// A done slot stays active until the next Reset.
func (b *BatchTrajectory) Step(observations [][]float64, rawRewards []float64,
	processedRewards []int64, dones []bool, actions [][]float64) error {
	n := len(b.slots)
	if len(observations) != n || len(rawRewards) != n ||
		len(processedRewards) != n || len(dones) != n || len(actions) != n {
		return ErrBatchMismatch
	}
	for i, t := range b.slots {
		if !t.IsActive() {
			return fmt.Errorf("step trajectories: slot %d: %w", i, ErrInactiveSlot)
		}
	}
	for i, t := range b.slots {
		t.setLastAction(actions[i])
		t.addTimeStep(&TimeStep{
			Observation:     observations[i],
			RawReward:       rawRewards[i],
			ProcessedReward: processedRewards[i],
			Done:            dones[i],
		})
	}
	return nil
}

// CompleteAllTrajectories force-closes every still-active
// trajectory, moving it to the completed list regardless
// of its done status.
//
// This is used before exporting data so that in-progress
// episodes are not lost.
func (b *BatchTrajectory) CompleteAllTrajectories() {
	for i, t := range b.slots {
		if t.IsActive() {
			b.complete(i)
		}
	}
}

func (b *BatchTrajectory) complete(index int) {
	t := b.slots[index]
	t.completed = true
	b.completed = append(b.completed, t)
	b.slots[index] = newTrajectory()
}
