// Package param models finite parameter domains (voices, models, languages)
// and uniform random selection over them.
//
// A Domain is the set of legal values for one generation parameter of one
// provider. Selection takes an injected randomness source so callers can seed
// it for reproducible picks.
package param

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// ErrEmptyDomain is returned when selecting from a domain with no members.
var ErrEmptyDomain = errors.New("parameter domain is empty")

// Domain is a finite, enumerable set of legal values for one parameter axis.
// Domains are immutable by convention: construct once, never append.
type Domain[T comparable] []T

// NewDomain creates a domain from the given values.
func NewDomain[T comparable](values ...T) Domain[T] {
	d := make(Domain[T], len(values))
	copy(d, values)
	return d
}

// Contains reports whether v is a member of the domain.
func (d Domain[T]) Contains(v T) bool {
	for _, member := range d {
		if member == v {
			return true
		}
	}
	return false
}

// Values returns a copy of the domain's members.
func (d Domain[T]) Values() []T {
	out := make([]T, len(d))
	copy(out, d)
	return out
}

// Len returns the number of members.
func (d Domain[T]) Len() int {
	return len(d)
}

// Validate returns nil if v is a member, or an *InvalidValueError listing
// the valid options otherwise.
func (d Domain[T]) Validate(v T) error {
	if d.Contains(v) {
		return nil
	}
	valid := make([]string, len(d))
	for i, member := range d {
		valid[i] = fmt.Sprintf("%v", member)
	}
	return &InvalidValueError{
		Value: fmt.Sprintf("%v", v),
		Valid: valid,
	}
}

// InvalidValueError reports a value outside its parameter domain.
type InvalidValueError struct {
	// Value is the rejected value.
	Value string

	// Valid lists the domain's legal values.
	Valid []string
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value: %q. Valid options are: %s", e.Value, strings.Join(e.Valid, ", "))
}

// Pick selects one member of the domain uniformly at random using the given
// source. The source is injected rather than global so a seeded rand makes
// selection reproducible. Returns ErrEmptyDomain for an empty domain.
func Pick[T comparable](rng *rand.Rand, d Domain[T]) (T, error) {
	var zero T
	if len(d) == 0 {
		return zero, ErrEmptyDomain
	}
	return d[rng.Intn(len(d))], nil
}
