package envrec

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	serializer.RegisterTypedDeserializer(StepRecord{}.SerializerType(),
		DeserializeStepRecord)
}

// A Split names a partition of the generated dataset.
type Split int

// The supported dataset splits.
const (
	TrainSplit Split = iota
	EvalSplit
)

// String returns the name used in shard filenames.
func (s Split) String() string {
	switch s {
	case TrainSplit:
		return "train"
	case EvalSplit:
		return "eval"
	default:
		return fmt.Sprintf("Split(%d)", int(s))
	}
}

// DefaultNumShards returns the default shard count per
// split.
func DefaultNumShards() map[Split]int {
	return map[Split]int{
		TrainSplit: 10,
		EvalSplit:  1,
	}
}

// A StepRecord is the flat dataset form of one recorded
// time-step.
type StepRecord struct {
	// Timestep is the ordinal index of the time-step
	// within its trajectory, starting at 0.
	Timestep int

	// Action is the encoded action taken from this
	// time-step.
	// Terminal time-steps have no recorded action, so a
	// placeholder sampled from the action space is
	// stored instead.
	Action []float64

	RawReward float64
	Reward    int64

	// Done is stored on disk as an integer.
	Done bool

	Observation []float64
}

// DeserializeStepRecord deserializes a StepRecord.
func DeserializeStepRecord(d []byte) (*StepRecord, error) {
	var timestep, reward, done int
	var action, observation []float64
	var rawReward float64
	err := serializer.DeserializeAny(d, &timestep, &action, &rawReward,
		&reward, &done, &observation)
	if err != nil {
		return nil, essentials.AddCtx("deserialize StepRecord", err)
	}
	return &StepRecord{
		Timestep:    timestep,
		Action:      action,
		RawReward:   rawReward,
		Reward:      int64(reward),
		Done:        done != 0,
		Observation: observation,
	}, nil
}

// SerializerType returns the unique ID used to serialize
// StepRecords.
func (s StepRecord) SerializerType() string {
	return "github.com/unixpickle/envrec.StepRecord"
}

// Serialize serializes the record.
func (s StepRecord) Serialize() ([]byte, error) {
	done := 0
	if s.Done {
		done = 1
	}
	return serializer.SerializeAny(s.Timestep, s.Action, s.RawReward,
		int(s.Reward), done, s.Observation)
}

// WriteShardFile writes the records to a single shard
// file.
func WriteShardFile(path string, records []*StepRecord) (err error) {
	defer essentials.AddCtxTo("write shard file", &err)
	objs := make([]serializer.Serializer, len(records))
	for i, rec := range records {
		objs[i] = *rec
	}
	data, err := serializer.SerializeSlice(objs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadShardFile reads back the records in a shard file,
// in the order they were written.
func ReadShardFile(path string) (records []*StepRecord, err error) {
	defer essentials.AddCtxTo("read shard file", &err)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	objs, err := serializer.DeserializeSlice(data)
	if err != nil {
		return nil, err
	}
	records = make([]*StepRecord, len(objs))
	for i, obj := range objs {
		rec, ok := obj.(*StepRecord)
		if !ok {
			return nil, fmt.Errorf("unexpected record type: %T", obj)
		}
		records[i] = rec
	}
	return records, nil
}

// ShardFilenames returns the shard filenames for a
// dataset file prefix, ordered by split.
func ShardFilenames(prefix string, numShards map[Split]int) []string {
	var res []string
	for _, split := range []Split{TrainSplit, EvalSplit} {
		n := numShards[split]
		for i := 0; i < n; i++ {
			res = append(res, fmt.Sprintf("%s-%s-%05d-of-%05d", prefix, split, i, n))
		}
	}
	return res
}

// TrajectoryRecords converts a completed trajectory into
// flat records, one per time-step.
//
// Trajectories with one or fewer time-steps are
// uninformative (e.g. a repeated reset) and produce no
// records.
//
// Missing terminal actions are replaced by placeholders
// sampled from actionSpace using gen.
func TrajectoryRecords(t *Trajectory, actionSpace *Space,
	gen *rand.Rand) []*StepRecord {
	if t.NumTimeSteps() <= 1 {
		return nil
	}
	records := make([]*StepRecord, 0, t.NumTimeSteps())
	for i, ts := range t.TimeSteps() {
		action := ts.Action
		if action == nil {
			action = actionSpace.Sample(gen)
		}
		records = append(records, &StepRecord{
			Timestep:    i,
			Action:      actionSpace.Encode(action),
			RawReward:   ts.RawReward,
			Reward:      ts.ProcessedReward,
			Done:        ts.Done,
			Observation: append([]float64{}, ts.Observation...),
		})
	}
	return records
}

// GenerateData force-completes every in-progress
// trajectory and writes the completed trajectories to
// shard files under dataDir.
//
// Trajectories are distributed round-robin across the
// shards by completed-trajectory index, so the shards are
// approximately balanced.
// Serialization errors propagate directly; there is no
// retry.
func (r *Recorder) GenerateData(dataDir string) (err error) {
	if r.pool.Size() == 0 {
		return fmt.Errorf("generate data: %w", ErrNotInitialized)
	}
	defer essentials.AddCtxTo("generate data", &err)
	numShards := r.NumShards
	if numShards == nil {
		numShards = DefaultNumShards()
	}
	files := ShardFilenames(r.DatasetFilename(), numShards)

	r.trajectories.CompleteAllTrajectories()
	completed := r.trajectories.CompletedTrajectories()
	if len(completed) < len(files) {
		log.Printf("envrec: %d completed trajectories for %d shards; "+
			"some shards may be empty.", len(completed), len(files))
	}

	gen := rand.New(rand.NewSource(0))
	for i, file := range files {
		if i >= len(completed) {
			break
		}
		var records []*StepRecord
		for j := i; j < len(completed); j += len(files) {
			records = append(records,
				TrajectoryRecords(completed[j], r.pool.ActionSpace(), gen)...)
		}
		if err := WriteShardFile(filepath.Join(dataDir, file), records); err != nil {
			return err
		}
	}
	return nil
}
