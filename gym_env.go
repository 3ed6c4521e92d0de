package envrec

import (
	"errors"
	"fmt"

	"github.com/unixpickle/essentials"
	gym "github.com/unixpickle/gym-socket-api/binding-go"
)

type gymEnv struct {
	env      gym.Env
	obsSpace *Space
	actSpace *Space
	render   bool
}

// GymEnv creates an Env from an OpenAI Gym instance.
//
// This will fail if the instance exposes an unsupported
// space type or if it fails to fetch space info.
func GymEnv(e gym.Env, render bool) (env Env, err error) {
	defer essentials.AddCtxTo("create gym Env", &err)
	actionSpace, err := e.ActionSpace()
	if err != nil {
		return nil, err
	}
	obsSpace, err := e.ObservationSpace()
	if err != nil {
		return nil, err
	}
	actConv, err := spaceFromGym(actionSpace)
	if err != nil {
		return nil, err
	}
	obsConv, err := spaceFromGym(obsSpace)
	if err != nil {
		return nil, err
	}
	return &gymEnv{
		env:      e,
		obsSpace: obsConv,
		actSpace: actConv,
		render:   render,
	}, nil
}

// GymMaker returns an EnvMaker which connects to a gym
// server and creates instances of the named gym
// environment.
//
// This can be registered as an environment template:
//
//	envrec.Register("CartPole", envrec.GymMaker(host, "CartPole-v0", false))
func GymMaker(host, envName string, render bool) EnvMaker {
	return func() (Env, error) {
		client, err := gym.Make(host, envName)
		if err != nil {
			return nil, err
		}
		env, err := GymEnv(client, render)
		if err != nil {
			client.Close()
			return nil, err
		}
		return env, nil
	}
}

func (g *gymEnv) Reset() (obs []float64, err error) {
	defer essentials.AddCtxTo("reset gym Env", &err)
	rawObs, err := g.env.Reset()
	if err != nil {
		return nil, err
	}
	return gym.Flatten(rawObs)
}

func (g *gymEnv) Step(action []float64) (obs []float64, reward float64,
	done bool, info map[string]interface{}, err error) {
	defer essentials.AddCtxTo("step gym Env", &err)
	if g.render {
		if err = g.env.Render(); err != nil {
			return
		}
	}
	var rawObs gym.Obs
	var rawInfo interface{}
	rawObs, reward, done, rawInfo, err = g.env.Step(g.gymAction(action))
	if err != nil {
		return
	}
	obs, err = gym.Flatten(rawObs)
	if err != nil {
		return
	}
	info, _ = rawInfo.(map[string]interface{})
	return
}

func (g *gymEnv) ObservationSpace() *Space {
	return g.obsSpace
}

func (g *gymEnv) ActionSpace() *Space {
	return g.actSpace
}

func (g *gymEnv) RewardRange() RewardRange {
	// The socket protocol does not expose reward_range.
	return InfiniteRewardRange()
}

func (g *gymEnv) Seed(seed int64) error {
	return errors.New("seed gym Env: not supported by the gym protocol")
}

func (g *gymEnv) Close() error {
	return g.env.Close()
}

func (g *gymEnv) gymAction(action []float64) interface{} {
	if g.actSpace.Name == DiscreteSpaceName {
		return maxIndex(action)
	}
	return action
}

func spaceFromGym(s *gym.Space) (*Space, error) {
	switch s.Type {
	case "Box":
		return BoxSpace(s.Low, s.High, s.Shape...), nil
	case "Discrete":
		return DiscreteSpace(s.N), nil
	default:
		return nil, fmt.Errorf("unsupported space: %s", s.Type)
	}
}
