package jurisdiction

import "strings"

// Jurisdiction identifies a geographic/regulatory scope: a country and an
// optional subdivision (state, province).
type Jurisdiction struct {
	CountryCode string
	Subdivision string
}

// Normalize upper-cases codes and trims whitespace.
func (j Jurisdiction) Normalize() Jurisdiction {
	return Jurisdiction{
		CountryCode: strings.ToUpper(strings.TrimSpace(j.CountryCode)),
		Subdivision: strings.ToUpper(strings.TrimSpace(j.Subdivision)),
	}
}

// IsZero reports whether the jurisdiction is unset.
func (j Jurisdiction) IsZero() bool { return j.CountryCode == "" }

// String renders "CC" or "CC-SUB".
func (j Jurisdiction) String() string {
	if j.Subdivision == "" {
		return j.CountryCode
	}
	return j.CountryCode + "-" + j.Subdivision
}

// Matcher scopes a zone to a country or to a single subdivision within it.
type Matcher struct {
	CountryCode string
	Subdivision string
}

// Specificity orders matchers: subdivision-level matches beat country-level
// matches for the same candidate.
func (m Matcher) Specificity() int {
	if m.Subdivision != "" {
		return 2
	}
	return 1
}

// Matches reports whether the candidate jurisdiction falls inside the matcher.
func (m Matcher) Matches(j Jurisdiction) bool {
	j = j.Normalize()
	if !strings.EqualFold(m.CountryCode, j.CountryCode) {
		return false
	}
	if m.Subdivision == "" {
		return true
	}
	return strings.EqualFold(m.Subdivision, j.Subdivision)
}

// Zone groups jurisdictions that share a rate schedule.
type Zone struct {
	ID       string
	Label    string
	Matchers []Matcher
}

// match returns the highest specificity among the zone's matchers that accept
// the candidate, or 0 when none do.
func (z Zone) match(j Jurisdiction) int {
	best := 0
	for _, m := range z.Matchers {
		if m.Matches(j) && m.Specificity() > best {
			best = m.Specificity()
		}
	}
	return best
}
