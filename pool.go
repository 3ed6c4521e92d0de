package envrec

import (
	"fmt"

	"github.com/unixpickle/essentials"
)

// A Pool is a fixed-size collection of homogeneous
// environment instances which are driven in lock-step.
//
// All instances must expose structurally equal
// observation and action spaces.
//
// Stepping is sequential iteration over the instances,
// not parallel execution.
type Pool struct {
	envs     []Env
	obsSpace *Space
	actSpace *Space
}

// NewPool creates batchSize instances with maker and
// validates that they share the same spaces.
//
// On a space mismatch, the error wraps ErrSpaceMismatch
// and the created instances are closed.
func NewPool(maker EnvMaker, batchSize int) (pool *Pool, err error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("initialize pool: batch size must be at least 1, got %d",
			batchSize)
	}
	envs := make([]Env, 0, batchSize)
	defer func() {
		if err != nil {
			for _, e := range envs {
				e.Close()
			}
		}
	}()
	for i := 0; i < batchSize; i++ {
		env, err := maker()
		if err != nil {
			return nil, essentials.AddCtx("initialize pool", err)
		}
		envs = append(envs, env)
	}
	pool = &Pool{
		envs:     envs,
		obsSpace: envs[0].ObservationSpace(),
		actSpace: envs[0].ActionSpace(),
	}
	if err := pool.verifySameSpaces(); err != nil {
		return nil, fmt.Errorf("initialize pool: %w", err)
	}
	return pool, nil
}

func (p *Pool) verifySameSpaces() error {
	for i, env := range p.envs {
		if !p.obsSpace.Eq(env.ObservationSpace()) {
			return fmt.Errorf("%w: env %d observation space %v != %v",
				ErrSpaceMismatch, i, env.ObservationSpace(), p.obsSpace)
		}
		if !p.actSpace.Eq(env.ActionSpace()) {
			return fmt.Errorf("%w: env %d action space %v != %v",
				ErrSpaceMismatch, i, env.ActionSpace(), p.actSpace)
		}
	}
	return nil
}

// Size returns the number of environment instances.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.envs)
}

// ObservationSpace returns the shared observation space.
func (p *Pool) ObservationSpace() *Space {
	return p.obsSpace
}

// ActionSpace returns the shared action space.
func (p *Pool) ActionSpace() *Space {
	return p.actSpace
}

// RewardRange returns the raw reward range reported by
// the environments.
func (p *Pool) RewardRange() RewardRange {
	return p.envs[0].RewardRange()
}

// Reset resets the environments at the given indices and
// returns their initial observations, one per index.
//
// A nil indices slice resets every environment.
func (p *Pool) Reset(indices []int) (observations [][]float64, err error) {
	if p.Size() == 0 {
		return nil, fmt.Errorf("reset pool: %w", ErrNotInitialized)
	}
	if indices == nil {
		indices = make([]int, len(p.envs))
		for i := range indices {
			indices[i] = i
		}
	}
	for _, index := range indices {
		if index < 0 || index >= len(p.envs) {
			return nil, fmt.Errorf("reset pool: index %d out of range [0, %d)",
				index, len(p.envs))
		}
	}
	defer essentials.AddCtxTo("reset pool", &err)
	observations = make([][]float64, len(indices))
	for i, index := range indices {
		observations[i], err = p.envs[index].Reset()
		if err != nil {
			return nil, err
		}
	}
	return observations, nil
}

// Step steps every environment with its corresponding
// action.
//
// The returned slices all have length Size().
func (p *Pool) Step(actions [][]float64) (observations [][]float64,
	rewards []float64, dones []bool, infos []map[string]interface{}, err error) {
	if p.Size() == 0 {
		err = fmt.Errorf("step pool: %w", ErrNotInitialized)
		return
	}
	if len(actions) != len(p.envs) {
		err = fmt.Errorf("step pool: %w: got %d actions for %d environments",
			ErrBatchMismatch, len(actions), len(p.envs))
		return
	}
	defer essentials.AddCtxTo("step pool", &err)
	observations = make([][]float64, len(p.envs))
	rewards = make([]float64, len(p.envs))
	dones = make([]bool, len(p.envs))
	infos = make([]map[string]interface{}, len(p.envs))
	for i, env := range p.envs {
		observations[i], rewards[i], dones[i], infos[i], err = env.Step(actions[i])
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return
}

// Seed broadcasts the seed to every environment.
func (p *Pool) Seed(seed int64) (err error) {
	if p.Size() == 0 {
		return fmt.Errorf("seed pool: %w", ErrNotInitialized)
	}
	defer essentials.AddCtxTo("seed pool", &err)
	for _, env := range p.envs {
		if err := env.Seed(seed); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every environment, returning the first
// error encountered.
//
// Closing an uninitialized pool is a no-op.
func (p *Pool) Close() (err error) {
	if p.Size() == 0 {
		return nil
	}
	defer essentials.AddCtxTo("close pool", &err)
	for _, env := range p.envs {
		if closeErr := env.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return
}
