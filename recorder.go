package envrec

import (
	"fmt"
	"log"
	"strings"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

// DefaultAgentID is the agent ID used by recorders until
// SetAgentID is called.
const DefaultAgentID = "default"

// A StepResult is the outcome of stepping every
// environment in a recorder once.
type StepResult struct {
	// Observations is the packed batch of processed
	// observations, one chunk per environment.
	Observations anyvec.Vector

	// Rewards contains the processed rewards.
	Rewards []int64

	// RawRewards contains the rewards before clipping
	// and rounding.
	RawRewards []float64

	// Dones flags the environments whose episodes just
	// terminated.
	Dones []bool

	// Infos contains the auxiliary diagnostics from each
	// environment, which are not recorded.
	Infos []map[string]interface{}
}

// A Recorder drives a pool of environments, records every
// interaction in trajectories, and exports the completed
// trajectories as a sharded dataset.
//
// It composes two capabilities: the batched environment
// behavior (Reset, Step, Seed, Close) and the dataset
// schema (Name, agent ID, shard counts).
//
// The exported fields configure the recorder and should
// not be changed after Initialize.
type Recorder struct {
	// Name identifies the dataset produced by this
	// recorder and prefixes shard filenames.
	Name string

	// BaseEnvName is the registered environment template
	// used to create pool instances.
	BaseEnvName string

	// Maker, if non-nil, is used instead of looking
	// BaseEnvName up in the registry.
	Maker EnvMaker

	// Creator builds packed observation batches.
	// If nil, anyvec64.CurrentCreator() is used.
	Creator anyvec.Creator

	// RewardRange overrides the reward range reported by
	// the environments.
	RewardRange *RewardRange

	// ProcessObs, if non-nil, transforms a batch of
	// observations before they are recorded and
	// returned.
	ProcessObs func(observations [][]float64) [][]float64

	// NumShards maps each dataset split to its shard
	// count. If nil, DefaultNumShards() is used.
	NumShards map[Split]int

	agentID      string
	pool         *Pool
	trajectories *BatchTrajectory
}

// NewRecorder creates a recorder for the named dataset
// and environment template and initializes batchSize
// environments.
func NewRecorder(name, baseEnvName string, batchSize int) (*Recorder, error) {
	res := &Recorder{Name: name, BaseEnvName: baseEnvName}
	if err := res.Initialize(batchSize); err != nil {
		return nil, err
	}
	return res, nil
}

// Initialize creates the environment pool and an empty
// trajectory store.
//
// It may be called again on an already-initialized
// recorder to re-create the environments, possibly with a
// different batch size; previously completed trajectories
// are discarded.
func (r *Recorder) Initialize(batchSize int) error {
	maker := r.Maker
	if maker == nil {
		maker = func() (Env, error) {
			return Make(r.BaseEnvName)
		}
	}
	pool, err := NewPool(maker, batchSize)
	if err != nil {
		return err
	}
	if r.pool != nil {
		r.pool.Close()
	}
	r.pool = pool
	r.trajectories = NewBatchTrajectory(batchSize)
	if r.RewardRange == nil {
		rang := pool.RewardRange()
		r.RewardRange = &rang
	}
	return nil
}

// BatchSize returns the number of environments, or 0 for
// an uninitialized recorder.
func (r *Recorder) BatchSize() int {
	return r.pool.Size()
}

// Trajectories returns the trajectory store.
func (r *Recorder) Trajectories() *BatchTrajectory {
	return r.trajectories
}

// ObservationSpace returns the environments' shared
// observation space.
func (r *Recorder) ObservationSpace() *Space {
	return r.pool.ObservationSpace()
}

// ActionSpace returns the environments' shared action
// space.
func (r *Recorder) ActionSpace() *Space {
	return r.pool.ActionSpace()
}

// NumActions returns the cardinality of a Discrete action
// space, with false for non-Discrete spaces.
func (r *Recorder) NumActions() (int, bool) {
	return r.pool.ActionSpace().Cardinality()
}

// NumRewards returns the number of distinct processed
// reward values, with false when the reward range is not
// finite.
//
// Processed rewards are integral by construction, so a
// finite range always has a known count.
func (r *Recorder) NumRewards() (int, bool) {
	if r.RewardRange == nil {
		return 0, false
	}
	return r.RewardRange.NumRewards()
}

// AgentID returns the ID of the agent whose interactions
// are being recorded.
func (r *Recorder) AgentID() string {
	if r.agentID == "" {
		return DefaultAgentID
	}
	return r.agentID
}

// SetAgentID changes the agent ID used in shard
// filenames.
//
// IDs must be non-empty and must not contain '-', which
// separates filename components.
func (r *Recorder) SetAgentID(id string) error {
	if id == "" || strings.Contains(id, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidAgentID, id)
	}
	r.agentID = id
	return nil
}

// DatasetFilename returns the filename prefix shared by
// all of the recorder's shards.
func (r *Recorder) DatasetFilename() string {
	return r.Name + "-" + r.AgentID()
}

// Reset resets the environments at the given indices,
// starts fresh trajectories for them, and returns the
// packed batch of their initial processed observations.
//
// A nil indices slice resets every environment.
// An empty (non-nil) slice is a no-op and returns nil.
func (r *Recorder) Reset(indices []int) (observations anyvec.Vector, err error) {
	if r.pool.Size() == 0 {
		return nil, fmt.Errorf("reset recorder: %w", ErrNotInitialized)
	}
	if indices == nil {
		indices = make([]int, r.pool.Size())
		for i := range indices {
			indices[i] = i
		}
	}
	if len(indices) == 0 {
		log.Println("envrec: Reset called with no indices; doing nothing.")
		return nil, nil
	}
	obs, err := r.pool.Reset(indices)
	if err != nil {
		return nil, err
	}
	processed := r.processObs(obs)
	if err := r.trajectories.Reset(indices, processed); err != nil {
		return nil, err
	}
	return packBatch(r.creator(), processed), nil
}

// Step steps every environment with its corresponding
// action and records the results.
//
// The actions slice must contain exactly BatchSize()
// actions.
func (r *Recorder) Step(actions [][]float64) (res *StepResult, err error) {
	if r.pool.Size() == 0 {
		return nil, fmt.Errorf("step recorder: %w", ErrNotInitialized)
	}
	obs, rawRewards, dones, infos, err := r.pool.Step(actions)
	if err != nil {
		return nil, err
	}
	processedRewards := ProcessRewards(*r.RewardRange, rawRewards)
	processedObs := r.processObs(obs)
	err = r.trajectories.Step(processedObs, rawRewards, processedRewards,
		dones, actions)
	if err != nil {
		return nil, err
	}
	return &StepResult{
		Observations: packBatch(r.creator(), processedObs),
		Rewards:      processedRewards,
		RawRewards:   rawRewards,
		Dones:        dones,
		Infos:        infos,
	}, nil
}

// StepPacked splits a packed action batch into one chunk
// per environment and steps with the result.
//
// The chunk size is the action space's flat dimension, so
// the batch length must be BatchSize() times that.
func (r *Recorder) StepPacked(actions anyvec.Vector) (res *StepResult, err error) {
	if r.pool.Size() == 0 {
		return nil, fmt.Errorf("step recorder: %w", ErrNotInitialized)
	}
	chunk := r.pool.ActionSpace().FlatDim()
	if actions.Len() != chunk*r.pool.Size() {
		return nil, fmt.Errorf("step recorder: %w: packed batch has length %d, want %d",
			ErrBatchMismatch, actions.Len(), chunk*r.pool.Size())
	}
	joined := actions.Creator().Float64Slice(actions.Data())
	split := make([][]float64, r.pool.Size())
	for i := range split {
		split[i] = joined[i*chunk : (i+1)*chunk]
	}
	return r.Step(split)
}

// Seed broadcasts the seed to every environment.
func (r *Recorder) Seed(seed int64) error {
	return r.pool.Seed(seed)
}

// Close closes every environment.
func (r *Recorder) Close() error {
	return r.pool.Close()
}

// PrintState logs the last recorded observation of each
// active trajectory, for debugging.
func (r *Recorder) PrintState() {
	for i, t := range r.trajectories.Trajectories() {
		if !t.IsActive() {
			log.Printf("envrec: slot %d: no active trajectory", i)
			continue
		}
		log.Printf("envrec: slot %d: last observation %v", i,
			t.LastTimeStep().Observation)
	}
}

func (r *Recorder) creator() anyvec.Creator {
	if r.Creator != nil {
		return r.Creator
	}
	return anyvec64.CurrentCreator()
}

func (r *Recorder) processObs(observations [][]float64) [][]float64 {
	if r.ProcessObs == nil {
		return observations
	}
	return r.ProcessObs(observations)
}

// DoneIndices returns the indices at which dones is true,
// suitable for passing to Reset.
func DoneIndices(dones []bool) []int {
	res := []int{}
	for i, done := range dones {
		if done {
			res = append(res, i)
		}
	}
	return res
}

func packBatch(c anyvec.Creator, rows [][]float64) anyvec.Vector {
	var joined []float64
	for _, row := range rows {
		joined = append(joined, row...)
	}
	return c.MakeVectorData(c.MakeNumericList(joined))
}
