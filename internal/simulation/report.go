package simulation

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/markkurossi/tabulate"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/party"
	"github.com/taurusgroup/sum-of-products/protocols/sop"
)

// Report prints the outcome of an evaluation.
// When nodes are given, the shared values of each node and the correction values of the leaders are printed as well.
func Report(w io.Writer, s *Scenario, result *sop.Result, nodes []*node.Node) {
	expected := s.Expected()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Value").SetAlign(tabulate.ML)
	tab.Header("Result").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column("group")
	row.Column(s.Group.Name())

	for _, term := range s.Topology.Terms {
		row = tab.Row()
		row.Column(term.Label)
		if result != nil {
			row.Column(str(result.Terms[term.ID]))
		} else {
			row.Column("")
		}
	}

	row = tab.Row()
	row.Column("expected z").SetFormat(tabulate.FmtBold)
	row.Column(str(expected)).SetFormat(tabulate.FmtBold)

	row = tab.Row()
	row.Column("z").SetFormat(tabulate.FmtBold)
	if result != nil {
		row.Column(str(result.Z)).SetFormat(tabulate.FmtBold)
	} else {
		row.Column("")
	}
	tab.Print(w)

	if len(nodes) == 0 {
		return
	}
	byID := make(map[party.ID]*node.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}

	tab = tabulate.New(tabulate.UnicodeLight)
	tab.Header("Node").SetAlign(tabulate.MR)
	tab.Header("Input").SetAlign(tabulate.MR)
	tab.Header("Shared value").SetAlign(tabulate.MR)
	for _, n := range nodes {
		shares := n.SharedValues()
		for _, input := range s.Topology.InputsOf(n.ID()) {
			row := tab.Row()
			row.Column(n.ID().String())
			row.Column(fmt.Sprintf("x%d", input))
			row.Column(str(shares[input]))
		}
	}
	tab.Print(w)

	tab = tabulate.New(tabulate.UnicodeLight)
	tab.Header("Leader").SetAlign(tabulate.MR)
	tab.Header("Term").SetAlign(tabulate.ML)
	tab.Header("Correction value").SetAlign(tabulate.MR)
	for _, term := range s.Topology.Terms {
		row := tab.Row()
		row.Column(term.Leader.String())
		row.Column(term.Label)
		var gamma *saferith.Nat
		if leader, ok := byID[term.Leader]; ok {
			gamma, _ = leader.CorrectionValue(term.ID)
		}
		row.Column(str(gamma))
	}
	tab.Print(w)
}

func str(x *saferith.Nat) string {
	if x == nil {
		return "-"
	}
	return x.Big().String()
}
