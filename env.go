package envrec

import (
	"fmt"
	"sync"
)

// Env is an instance of a simulation environment.
//
// Observations and actions are flattened vectors whose
// layouts are described by the environment's spaces.
type Env interface {
	// Reset starts a new episode and returns the first
	// observation.
	Reset() (observation []float64, err error)

	// Step advances the episode by one action.
	//
	// The info map carries auxiliary diagnostics and may
	// be nil.
	Step(action []float64) (observation []float64, reward float64,
		done bool, info map[string]interface{}, err error)

	// ObservationSpace describes valid observations.
	ObservationSpace() *Space

	// ActionSpace describes valid actions.
	ActionSpace() *Space

	// RewardRange reports the range of raw rewards the
	// environment can produce.
	RewardRange() RewardRange

	// Seed seeds the environment's source of randomness.
	Seed(seed int64) error

	// Close releases the resources used by the
	// environment.
	Close() error
}

// An EnvMaker creates instances of an environment
// template.
type EnvMaker func() (Env, error)

var envMakers = struct {
	sync.RWMutex
	m map[string]EnvMaker
}{m: map[string]EnvMaker{}}

// Register associates an environment template name with a
// maker, so that pools can create instances of it by
// name.
//
// Registering a name twice overwrites the old maker.
func Register(name string, maker EnvMaker) {
	envMakers.Lock()
	defer envMakers.Unlock()
	envMakers.m[name] = maker
}

// Make creates an environment instance from a registered
// template name.
func Make(name string) (Env, error) {
	envMakers.RLock()
	maker, ok := envMakers.m[name]
	envMakers.RUnlock()
	if !ok {
		return nil, fmt.Errorf("make environment: no template named %q", name)
	}
	return maker()
}
