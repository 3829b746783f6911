package simulation

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/math/sample"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
)

// Scenario is a complete set of parameters for one evaluation.
type Scenario struct {
	Group    *group.Group
	Topology *topology.Topology
	Inputs   map[topology.InputID]*saferith.Nat
	Lambdas  map[topology.InputID]*saferith.Nat
}

// Random samples inputs and blinding exponents uniformly in [1, p) for every input of topo.
func Random(rand io.Reader, grp *group.Group, topo *topology.Topology) *Scenario {
	s := &Scenario{
		Group:    grp,
		Topology: topo,
		Inputs:   map[topology.InputID]*saferith.Nat{},
		Lambdas:  map[topology.InputID]*saferith.Nat{},
	}
	for _, input := range topo.InputIDs() {
		s.Inputs[input] = sample.Input(rand, grp)
		s.Lambdas[input] = sample.Lambda(rand, grp)
	}
	return s
}

// Literal builds a scenario on the default topology from explicit values.
// x and lambdas are given in input order.
func Literal(grp *group.Group, x, lambdas []uint64) (*Scenario, error) {
	topo := topology.Default()
	ids := topo.InputIDs()
	if len(x) != len(ids) || len(lambdas) != len(ids) {
		return nil, fmt.Errorf("simulation: expected %d inputs and exponents, got %d and %d", len(ids), len(x), len(lambdas))
	}
	s := &Scenario{
		Group:    grp,
		Topology: topo,
		Inputs:   make(map[topology.InputID]*saferith.Nat, len(ids)),
		Lambdas:  make(map[topology.InputID]*saferith.Nat, len(ids)),
	}
	for i, id := range ids {
		s.Inputs[id] = new(saferith.Nat).SetUint64(x[i])
		s.Lambdas[id] = new(saferith.Nat).SetUint64(lambdas[i])
	}
	return s, s.Validate()
}

// Validate checks that the scenario can be evaluated.
func (s *Scenario) Validate() error {
	if s.Group == nil || s.Topology == nil {
		return errors.New("simulation: incomplete scenario")
	}
	if err := s.Topology.Validate(); err != nil {
		return err
	}
	for _, input := range s.Topology.InputIDs() {
		if !s.Group.IsUnit(s.Inputs[input]) {
			return fmt.Errorf("simulation: input %d must satisfy 0 < x < p", input)
		}
		if s.Lambdas[input] == nil {
			return fmt.Errorf("simulation: missing exponent for input %d", input)
		}
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Scenario) MarshalBinary() ([]byte, error) {
	type plain Scenario
	return cbor.Marshal((*plain)(s))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Scenario) UnmarshalBinary(data []byte) error {
	type plain Scenario
	decoded := plain{
		Group:    new(group.Group),
		Topology: new(topology.Topology),
	}
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return err
	}
	scenario := Scenario(decoded)
	if err := scenario.Validate(); err != nil {
		return err
	}
	*s = scenario
	return nil
}
