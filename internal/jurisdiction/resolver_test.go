package jurisdiction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherSpecificity(t *testing.T) {
	country := Matcher{CountryCode: "US"}
	state := Matcher{CountryCode: "US", Subdivision: "CA"}
	assert.Equal(t, 1, country.Specificity())
	assert.Equal(t, 2, state.Specificity())

	ca := Jurisdiction{CountryCode: "us", Subdivision: "ca"}
	assert.True(t, country.Matches(ca))
	assert.True(t, state.Matches(ca))
	assert.False(t, state.Matches(Jurisdiction{CountryCode: "US", Subdivision: "NY"}))
}

func TestResolveSingleMatch(t *testing.T) {
	zones := []Zone{
		{ID: "nl", Label: "Netherlands", Matchers: []Matcher{{CountryCode: "NL"}}},
		{ID: "de", Label: "Germany", Matchers: []Matcher{{CountryCode: "DE"}}},
	}
	resolved, err := Resolve(zones, []Jurisdiction{{CountryCode: "NL"}})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "nl", resolved[0].ID)
}

func TestResolveNoMatchIsEmptyNotError(t *testing.T) {
	zones := []Zone{{ID: "nl", Matchers: []Matcher{{CountryCode: "NL"}}}}
	resolved, err := Resolve(zones, []Jurisdiction{{CountryCode: "US"}})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveSubdivisionBeatsCountry(t *testing.T) {
	zones := []Zone{
		{ID: "us", Label: "US baseline", Matchers: []Matcher{{CountryCode: "US"}}},
		{ID: "us-ca", Label: "California", Matchers: []Matcher{{CountryCode: "US", Subdivision: "CA"}}},
	}
	resolved, err := Resolve(zones, []Jurisdiction{{CountryCode: "US", Subdivision: "CA"}})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "us-ca", resolved[0].ID)
}

func TestResolveAmbiguousEqualSpecificity(t *testing.T) {
	zones := []Zone{
		{ID: "a", Matchers: []Matcher{{CountryCode: "US", Subdivision: "CA"}}},
		{ID: "b", Matchers: []Matcher{{CountryCode: "US", Subdivision: "CA"}}},
	}
	_, err := Resolve(zones, []Jurisdiction{{CountryCode: "US", Subdivision: "CA"}})
	assert.True(t, errors.Is(err, ErrAmbiguousJurisdiction))
}

func TestCandidatesOriginHomeFirst(t *testing.T) {
	r := Resolver{Policy: PolicyOrigin}
	candidates := r.Candidates(
		Jurisdiction{CountryCode: "nl"},
		[]Jurisdiction{{CountryCode: "DE"}, {CountryCode: "NL"}},
		Jurisdiction{CountryCode: "FR"},
	)
	require.Len(t, candidates, 2)
	assert.Equal(t, "NL", candidates[0].CountryCode)
	assert.Equal(t, "DE", candidates[1].CountryCode)
}

func TestCandidatesDestination(t *testing.T) {
	r := Resolver{Policy: PolicyDestination}
	candidates := r.Candidates(
		Jurisdiction{CountryCode: "NL"},
		[]Jurisdiction{{CountryCode: "DE"}},
		Jurisdiction{CountryCode: "US", Subdivision: "ca"},
	)
	require.Len(t, candidates, 1)
	assert.Equal(t, "US-CA", candidates[0].String())
}

func TestResolveMultipleCandidatesKeepsOrder(t *testing.T) {
	zones := []Zone{
		{ID: "nl", Matchers: []Matcher{{CountryCode: "NL"}}},
		{ID: "de", Matchers: []Matcher{{CountryCode: "DE"}}},
	}
	resolved, err := Resolve(zones, []Jurisdiction{{CountryCode: "NL"}, {CountryCode: "DE"}})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "nl", resolved[0].ID)
}
