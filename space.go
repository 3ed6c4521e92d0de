package envrec

import (
	"math/rand"
	"reflect"
)

// Names for the supported kinds of spaces.
const (
	BoxSpaceName      = "Box"
	DiscreteSpaceName = "Discrete"
)

// A Space describes the set of valid observations or
// actions for an environment.
//
// Two kinds of space are supported: "Box", a bounded
// region of a real vector space, and "Discrete", a finite
// set of choices.
//
// Vectors in a Discrete space are one-hot vectors of
// length N.
type Space struct {
	Name string

	// Box fields.
	Shape []int
	Low   []float64
	High  []float64

	// Discrete field.
	N int
}

// BoxSpace creates a Box space with the given bounds.
//
// The shape describes how the flattened vector should be
// interpreted.
// If no shape is given, the space is a flat vector of
// len(low) components.
func BoxSpace(low, high []float64, shape ...int) *Space {
	if len(low) != len(high) {
		panic("mismatching bound lengths")
	}
	if len(shape) == 0 {
		shape = []int{len(low)}
	}
	return &Space{
		Name:  BoxSpaceName,
		Shape: shape,
		Low:   low,
		High:  high,
	}
}

// DiscreteSpace creates a Discrete space with n choices.
func DiscreteSpace(n int) *Space {
	if n <= 0 {
		panic("discrete space must have at least one choice")
	}
	return &Space{Name: DiscreteSpaceName, N: n}
}

// Eq checks s and s1 for structural equality.
//
// Spaces must compare structurally rather than by
// pointer, since each environment instance reports its
// own descriptor.
func (s *Space) Eq(s1 *Space) bool {
	return reflect.DeepEqual(s, s1)
}

// FlatDim returns the number of components in a flattened
// vector from the space.
//
// For Discrete spaces, this is the one-hot width N.
func (s *Space) FlatDim() int {
	switch s.Name {
	case DiscreteSpaceName:
		return s.N
	default:
		product := 1
		for _, d := range s.Shape {
			product *= d
		}
		return product
	}
}

// Cardinality returns the number of distinct values in
// the space.
//
// The second return value is false for spaces which are
// not Discrete.
func (s *Space) Cardinality() (int, bool) {
	if s.Name != DiscreteSpaceName {
		return 0, false
	}
	return s.N, true
}

// Sample produces a uniformly random vector from the
// space.
//
// If gen is nil, the global generator from math/rand is
// used.
func (s *Space) Sample(gen *rand.Rand) []float64 {
	intn := rand.Intn
	floatn := rand.Float64
	if gen != nil {
		intn = gen.Intn
		floatn = gen.Float64
	}
	if s.Name == DiscreteSpaceName {
		res := make([]float64, s.N)
		res[intn(s.N)] = 1
		return res
	}
	res := make([]float64, len(s.Low))
	for i, low := range s.Low {
		res[i] = low + floatn()*(s.High[i]-low)
	}
	return res
}

// Encode converts a vector from the space into the flat
// form stored in dataset records.
//
// Box vectors are copied verbatim.
// Discrete one-hot vectors are collapsed to a single
// element containing the index of the choice.
func (s *Space) Encode(vec []float64) []float64 {
	if s.Name == DiscreteSpaceName {
		return []float64{float64(maxIndex(vec))}
	}
	return append([]float64{}, vec...)
}

func maxIndex(vec []float64) int {
	var res int
	for i, x := range vec {
		if x > vec[res] {
			res = i
		}
	}
	return res
}
