package tax

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/rules"
)

func snapshotWithVersion(t *testing.T, version, pct string) *rules.Snapshot {
	t.Helper()
	snap, err := rules.NewSnapshot(version, []jurisdiction.Zone{
		{ID: "nl", Label: "Netherlands", Matchers: []jurisdiction.Matcher{{CountryCode: "NL"}}},
	}, map[string][]rules.Rate{
		"nl": {{ID: "standard", Percentage: decimal.RequireFromString(pct)}},
	})
	require.NoError(t, err)
	return snap
}

func TestBuilderRejectsUnknownType(t *testing.T) {
	_, err := Builder{Types: []string{"galactic_tariff"}, Logger: zerolog.Nop()}.Build(snapshotWithVersion(t, "v1", "0.21"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "galactic_tariff")
}

func TestSourceServesActiveForEmptyVersion(t *testing.T) {
	source, err := NewSource(Builder{Types: []string{TypeEuropeanUnionVAT}, Logger: zerolog.Nop()}, snapshotWithVersion(t, "v1", "0.21"), nil)
	require.NoError(t, err)

	byEmpty, err := source.Registry(context.Background(), "")
	require.NoError(t, err)
	byVersion, err := source.Registry(context.Background(), "v1")
	require.NoError(t, err)
	assert.Same(t, byEmpty, byVersion)
}

func TestSourceUnknownVersionWithoutCache(t *testing.T) {
	source, err := NewSource(Builder{Types: []string{TypeEuropeanUnionVAT}, Logger: zerolog.Nop()}, snapshotWithVersion(t, "v1", "0.21"), nil)
	require.NoError(t, err)

	_, err = source.Registry(context.Background(), "v2")
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrRuleLookup)
}

func TestSourceFetchesAndMemoizesCachedVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := rules.NewCache(client, "", 0)
	require.NoError(t, cache.Put(context.Background(), snapshotWithVersion(t, "v2", "0.19")))

	source, err := NewSource(Builder{Types: []string{TypeEuropeanUnionVAT}, Logger: zerolog.Nop()}, snapshotWithVersion(t, "v1", "0.21"), cache)
	require.NoError(t, err)

	first, err := source.Registry(context.Background(), "v2")
	require.NoError(t, err)
	second, err := source.Registry(context.Background(), "v2")
	require.NoError(t, err)
	assert.Same(t, first, second)

	active, err := source.Registry(context.Background(), "")
	require.NoError(t, err)
	assert.NotSame(t, active, first)
}
