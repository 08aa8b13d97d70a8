package jurisdiction

import (
	"errors"
	"fmt"
)

// ErrAmbiguousJurisdiction signals that a candidate jurisdiction matched more
// than one zone at equal specificity. Callers treat it as "tax type does not
// apply" rather than a failed computation.
var ErrAmbiguousJurisdiction = errors.New("jurisdiction: ambiguous zone match")

// Policy selects which side of the transaction drives zone resolution.
type Policy string

const (
	// PolicyDestination resolves against the customer's jurisdiction
	// (US-style sales tax).
	PolicyDestination Policy = "destination"
	// PolicyOrigin resolves against the store's home jurisdiction and
	// registrations (EU VAT style).
	PolicyOrigin Policy = "origin"
)

// Resolver matches candidate jurisdictions against a set of zones.
type Resolver struct {
	Policy Policy
}

// Candidates derives the ordered candidate list for the configured policy.
// Origin regimes evaluate the store's home jurisdiction first, then its
// registrations; destination regimes use the customer's jurisdiction alone.
func (r Resolver) Candidates(storeHome Jurisdiction, registrations []Jurisdiction, customer Jurisdiction) []Jurisdiction {
	if r.Policy == PolicyDestination {
		if customer.IsZero() {
			return nil
		}
		return []Jurisdiction{customer.Normalize()}
	}
	seen := map[string]bool{}
	var out []Jurisdiction
	appendUnique := func(j Jurisdiction) {
		j = j.Normalize()
		if j.IsZero() || seen[j.String()] {
			return
		}
		seen[j.String()] = true
		out = append(out, j)
	}
	appendUnique(storeHome)
	for _, reg := range registrations {
		appendUnique(reg)
	}
	return out
}

// Resolve finds the zones applicable to the ordered candidates. Per candidate
// only the most specific matches count; a candidate matching more than one
// zone at that specificity fails with ErrAmbiguousJurisdiction. Zones are
// returned in candidate order, deduplicated, so callers taking the first entry
// get the highest-priority match. An empty result is not an error.
func Resolve(zones []Zone, candidates []Jurisdiction) ([]Zone, error) {
	var resolved []Zone
	taken := map[string]bool{}
	for _, candidate := range candidates {
		best := 0
		var matched []Zone
		for _, z := range zones {
			score := z.match(candidate)
			if score == 0 {
				continue
			}
			switch {
			case score > best:
				best = score
				matched = []Zone{z}
			case score == best:
				matched = append(matched, z)
			}
		}
		if len(matched) > 1 {
			return nil, fmt.Errorf("%w: %s matches %d zones", ErrAmbiguousJurisdiction, candidate, len(matched))
		}
		if len(matched) == 1 && !taken[matched[0].ID] {
			taken[matched[0].ID] = true
			resolved = append(resolved, matched[0])
		}
	}
	return resolved, nil
}
