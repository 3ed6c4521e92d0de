package envrec

import (
	"errors"
	"reflect"
	"testing"
)

func scriptedMaker(episodeLen int, rewards ...float64) EnvMaker {
	return func() (Env, error) {
		return newScriptedEnv(episodeLen, rewards...), nil
	}
}

func TestPoolStep(t *testing.T) {
	pool, err := NewPool(scriptedMaker(5), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	obs, err := pool.Reset([]int{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations but got %d", len(obs))
	}

	actions := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	stepObs, rewards, dones, infos, err := pool.Step(actions)
	if err != nil {
		t.Fatal(err)
	}
	if len(stepObs) != 3 || len(rewards) != 3 || len(dones) != 3 || len(infos) != 3 {
		t.Error("step results should have one entry per environment")
	}
	if !reflect.DeepEqual(stepObs[0], []float64{1, 1}) {
		t.Errorf("unexpected observation: %v", stepObs[0])
	}
}

func TestPoolSubsetReset(t *testing.T) {
	pool, err := NewPool(scriptedMaker(5), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if _, err := pool.Reset([]int{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	obs, err := pool.Reset([]int{2})
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation but got %d", len(obs))
	}
	// The second reset of env 2 is visible in its
	// observation.
	if !reflect.DeepEqual(obs[0], []float64{2, 0}) {
		t.Errorf("unexpected observation: %v", obs[0])
	}

	if _, err := pool.Reset([]int{3}); err == nil {
		t.Error("expected error for out-of-range index")
	}

	// A nil slice resets every environment.
	obs, err = pool.Reset(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations but got %d", len(obs))
	}
}

func TestPoolBatchMismatch(t *testing.T) {
	pool, err := NewPool(scriptedMaker(5), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if _, err := pool.Reset([]int{0, 1}); err != nil {
		t.Fatal(err)
	}
	_, _, _, _, err = pool.Step([][]float64{{1, 0, 0}})
	if !errors.Is(err, ErrBatchMismatch) {
		t.Errorf("expected ErrBatchMismatch but got %v", err)
	}
}

func TestPoolNotInitialized(t *testing.T) {
	var pool *Pool
	if _, _, _, _, err := pool.Step(nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized but got %v", err)
	}
	if _, err := pool.Reset([]int{0}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized but got %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("closing an uninitialized pool should be a no-op: %v", err)
	}
}

func TestPoolSpaceMismatch(t *testing.T) {
	var count int
	maker := func() (Env, error) {
		env := newScriptedEnv(5)
		env.actSpace = DiscreteSpace(3 + count)
		count++
		return env, nil
	}
	if _, err := NewPool(maker, 2); !errors.Is(err, ErrSpaceMismatch) {
		t.Errorf("expected ErrSpaceMismatch but got %v", err)
	}
}

func TestPoolBroadcast(t *testing.T) {
	var envs []*scriptedEnv
	maker := func() (Env, error) {
		env := newScriptedEnv(5)
		envs = append(envs, env)
		return env, nil
	}
	pool, err := NewPool(maker, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Seed(123); err != nil {
		t.Fatal(err)
	}
	if err := pool.Close(); err != nil {
		t.Fatal(err)
	}
	for i, env := range envs {
		if env.seed != 123 {
			t.Errorf("env %d: seed not broadcast", i)
		}
		if !env.closed {
			t.Errorf("env %d: not closed", i)
		}
	}
}
