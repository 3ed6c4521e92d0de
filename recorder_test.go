package envrec

import (
	"errors"
	"reflect"
	"testing"

	"github.com/unixpickle/anyvec/anyvec64"
)

func testRecorder(t *testing.T, batchSize, episodeLen int,
	rewards ...float64) *Recorder {
	t.Helper()
	rec := &Recorder{
		Name:  "test_ds",
		Maker: scriptedMaker(episodeLen, rewards...),
	}
	if err := rec.Initialize(batchSize); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		rec.Close()
	})
	return rec
}

func TestRecorderInteraction(t *testing.T) {
	rec := testRecorder(t, 4, 3, 1)

	obs, err := rec.Reset(nil)
	if err != nil {
		t.Fatal(err)
	}
	// Observations are 2-dimensional, so the packed batch
	// has batchSize*2 components.
	if obs.Len() != 8 {
		t.Fatalf("expected packed length 8 but got %d", obs.Len())
	}

	actions := make([][]float64, 4)
	for i := range actions {
		actions[i] = []float64{1, 0, 0}
	}
	for step := 0; step < 2; step++ {
		res, err := rec.Step(actions)
		if err != nil {
			t.Fatal(err)
		}
		if res.Observations.Len() != 8 {
			t.Fatalf("expected packed length 8 but got %d", res.Observations.Len())
		}
		if len(res.Rewards) != 4 || len(res.RawRewards) != 4 ||
			len(res.Dones) != 4 || len(res.Infos) != 4 {
			t.Fatal("step results should have one entry per environment")
		}
		if reflect.DeepEqual(res.Dones, []bool{true, true, true, true}) {
			t.Fatal("episodes should not be done yet")
		}
	}

	// All episodes finish on the third step.
	res, err := rec.Step(actions)
	if err != nil {
		t.Fatal(err)
	}
	doneIndices := DoneIndices(res.Dones)
	if !reflect.DeepEqual(doneIndices, []int{0, 1, 2, 3}) {
		t.Fatalf("expected all indices done but got %v", doneIndices)
	}

	if _, err := rec.Reset(doneIndices); err != nil {
		t.Fatal(err)
	}
	completed := rec.Trajectories().CompletedTrajectories()
	if len(completed) != 4 {
		t.Fatalf("expected 4 completed trajectories but got %d", len(completed))
	}
	for i, traj := range completed {
		if traj.NumTimeSteps() != 4 {
			t.Errorf("trajectory %d: expected 4 time-steps but got %d",
				i, traj.NumTimeSteps())
		}
	}

	// An empty (non-nil) reset is a no-op.
	obs, err = rec.Reset([]int{})
	if err != nil {
		t.Fatal(err)
	}
	if obs != nil {
		t.Error("empty reset should return no observations")
	}
}

func TestRecorderStepPacked(t *testing.T) {
	rec := testRecorder(t, 2, 5, 1)
	c := anyvec64.CurrentCreator()

	if _, err := rec.Reset(nil); err != nil {
		t.Fatal(err)
	}

	packed := c.MakeVectorData(c.MakeNumericList([]float64{
		1, 0, 0,
		0, 0, 1,
	}))
	res, err := rec.StepPacked(packed)
	if err != nil {
		t.Fatal(err)
	}
	if res.Observations.Len() != 4 {
		t.Fatalf("expected packed length 4 but got %d", res.Observations.Len())
	}

	// The split actions appear on the recorded time-steps.
	trajs := rec.Trajectories().Trajectories()
	if !reflect.DeepEqual(trajs[0].TimeSteps()[0].Action, []float64{1, 0, 0}) {
		t.Errorf("bad action for slot 0: %v", trajs[0].TimeSteps()[0].Action)
	}
	if !reflect.DeepEqual(trajs[1].TimeSteps()[0].Action, []float64{0, 0, 1}) {
		t.Errorf("bad action for slot 1: %v", trajs[1].TimeSteps()[0].Action)
	}

	short := c.MakeVectorData(c.MakeNumericList([]float64{1, 0, 0}))
	if _, err := rec.StepPacked(short); !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("expected ErrBatchMismatch but got %v", err)
	}
}

func TestRecorderProcessing(t *testing.T) {
	rec := &Recorder{
		Name:        "test_ds",
		Maker:       scriptedMaker(3, 7.6, -4),
		RewardRange: &RewardRange{Min: -1, Max: 1},
		ProcessObs: func(obs [][]float64) [][]float64 {
			res := make([][]float64, len(obs))
			for i, o := range obs {
				res[i] = []float64{o[0] * 10, o[1] * 10}
			}
			return res
		},
	}
	if err := rec.Initialize(1); err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	if _, err := rec.Reset(nil); err != nil {
		t.Fatal(err)
	}
	res, err := rec.Step([][]float64{{1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if res.RawRewards[0] != 7.6 {
		t.Errorf("expected raw reward 7.6 but got %v", res.RawRewards[0])
	}
	if res.Rewards[0] != 1 {
		t.Errorf("expected processed reward 1 but got %v", res.Rewards[0])
	}

	// Both reset and step observations pass through
	// ProcessObs before being recorded.
	steps := rec.Trajectories().Trajectories()[0].TimeSteps()
	if !reflect.DeepEqual(steps[0].Observation, []float64{10, 0}) {
		t.Errorf("bad recorded reset observation: %v", steps[0].Observation)
	}
	if !reflect.DeepEqual(steps[1].Observation, []float64{10, 10}) {
		t.Errorf("bad recorded step observation: %v", steps[1].Observation)
	}
	if steps[1].RawReward != 7.6 || steps[1].ProcessedReward != 1 {
		t.Errorf("bad recorded rewards: %v %v", steps[1].RawReward,
			steps[1].ProcessedReward)
	}

	if n, ok := rec.NumRewards(); !ok || n != 3 {
		t.Errorf("expected (3, true) but got (%d, %v)", n, ok)
	}
	if n, ok := rec.NumActions(); !ok || n != 3 {
		t.Errorf("expected (3, true) but got (%d, %v)", n, ok)
	}
}

func TestRecorderNotInitialized(t *testing.T) {
	rec := &Recorder{Name: "test_ds", Maker: scriptedMaker(3)}
	if _, err := rec.Reset(nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized but got %v", err)
	}
	if _, err := rec.Step(nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized but got %v", err)
	}
	if err := rec.GenerateData("."); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized but got %v", err)
	}
}

func TestRecorderReinitialize(t *testing.T) {
	rec := testRecorder(t, 2, 3, 1)
	if _, err := rec.Reset(nil); err != nil {
		t.Fatal(err)
	}
	if err := rec.Initialize(5); err != nil {
		t.Fatal(err)
	}
	if rec.BatchSize() != 5 {
		t.Errorf("expected batch size 5 but got %d", rec.BatchSize())
	}
	if rec.Trajectories().BatchSize() != 5 {
		t.Errorf("expected 5 trajectory slots but got %d",
			rec.Trajectories().BatchSize())
	}
	if len(rec.Trajectories().CompletedTrajectories()) != 0 {
		t.Error("re-initialization should discard old trajectories")
	}
}

func TestRecorderAgentID(t *testing.T) {
	rec := testRecorder(t, 1, 3, 1)
	if rec.AgentID() != "default" {
		t.Errorf("expected default agent ID but got %q", rec.AgentID())
	}
	if err := rec.SetAgentID("player1"); err != nil {
		t.Fatal(err)
	}
	if rec.DatasetFilename() != "test_ds-player1" {
		t.Errorf("unexpected dataset filename: %q", rec.DatasetFilename())
	}
	for _, bad := range []string{"", "agent-1"} {
		if err := rec.SetAgentID(bad); !errors.Is(err, ErrInvalidAgentID) {
			t.Errorf("expected ErrInvalidAgentID for %q but got %v", bad, err)
		}
	}
}

func TestDoneIndices(t *testing.T) {
	actual := DoneIndices([]bool{true, false, false, true})
	if !reflect.DeepEqual(actual, []int{0, 3}) {
		t.Errorf("expected [0 3] but got %v", actual)
	}
	if actual := DoneIndices([]bool{false}); len(actual) != 0 {
		t.Errorf("expected no indices but got %v", actual)
	}
}
