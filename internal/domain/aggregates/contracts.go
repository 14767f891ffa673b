package aggregates

import "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/feed"

// Contract lists what an aggregate owns: the write operations it exposes and the feed
// entity kinds those writes report. Every listed operation opens its own transaction
// and records one Edit and one Change Feed entry in it.
type Contract struct {
	Name       string
	Operations []Operation
	Subjects   []feed.EntityKind
}

// Owns reports whether op belongs to the contract.
func (c Contract) Owns(op Operation) bool {
	for _, o := range c.Operations {
		if o == op {
			return true
		}
	}
	return false
}

type Aggregate interface {
	Contract() Contract
}

// Contracts returns every aggregate contract of the service.
func Contracts() []Contract {
	return []Contract{LexiconAggregateContract, UserAggregateContract}
}
