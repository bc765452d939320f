package model

import (
	"fmt"
	"sort"
	"strings"
)

// CacheKind identifies a class of intermediate values kept between solves.
type CacheKind string

const (
	// CacheTimeStatusChange tracks on/off status transitions of a device.
	// Scoped to a single problem: status transitions are meaningless when
	// aggregated across problems with different resolutions.
	CacheTimeStatusChange CacheKind = "time_status_change"

	// CacheStoredEnergy tracks storage state of charge and may span the
	// problems that exchange it.
	CacheStoredEnergy CacheKind = "stored_energy"
)

// Valid reports whether the kind is one of the defined cache kinds.
func (k CacheKind) Valid() bool {
	return k == CacheTimeStatusChange || k == CacheStoredEnergy
}

// SingleProblemOnly reports whether declaring this kind over more than one
// problem is a configuration error.
func (k CacheKind) SingleProblemOnly() bool {
	return k == CacheTimeStatusChange
}

// CacheKey is the strongly typed identity of a cache declaration: the set of
// problem names it spans plus the kind. Problem names are NFC normalized,
// deduplicated, and sorted so that the key is order-insensitive.
type CacheKey struct {
	// Problems holds the sorted, normalized problem names. Treated as a set.
	Problems []string

	// Kind selects the cached value class.
	Kind CacheKind
}

// NewCacheKey builds a key from problem names in any order.
func NewCacheKey(kind CacheKind, problems ...string) CacheKey {
	seen := make(map[string]bool, len(problems))
	names := make([]string, 0, len(problems))
	for _, p := range problems {
		n := NormalizeName(p)
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return CacheKey{Problems: names, Kind: kind}
}

// ID returns a stable string form usable as a map key.
func (k CacheKey) ID() string {
	return string(k.Kind) + ":" + strings.Join(k.Problems, ",")
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s over [%s]", k.Kind, strings.Join(k.Problems, ", "))
}

// Validate checks kind validity, non-empty scope, and the single-problem
// restriction for kinds that declare it.
func (k CacheKey) Validate() error {
	if !k.Kind.Valid() {
		return fmt.Errorf("unknown cache kind %q", k.Kind)
	}
	if len(k.Problems) == 0 {
		return fmt.Errorf("cache %q declared with no problem scope", k.Kind)
	}
	if k.Kind.SingleProblemOnly() && len(k.Problems) > 1 {
		return fmt.Errorf("cache %q is restricted to a single problem, declared over %d", k.Kind, len(k.Problems))
	}
	return nil
}
