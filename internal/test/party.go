package test

import (
	"github.com/taurusgroup/sum-of-products/pkg/party"
)

// PartyIDs returns the party.IDSlice 0, 1, …, n-1.
func PartyIDs(n int) party.IDSlice {
	return party.Range(n)
}
