package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"TAX_RULES_PATH": "/etc/taxcore/rules.json",
		"REDIS_URL":      "redis://localhost:6379/0",
	})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "half-up", cfg.RoundingMode)
	assert.Equal(t, []string{"european_union_vat", "sales_tax"}, cfg.EnabledTaxTypes)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, 300, cfg.RateLimitPerMin)
}

func TestLoadRequiresRulesPath(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"TAX_RULES_PATH": "",
		"REDIS_URL":      "redis://localhost:6379/0",
	})
	assert.Error(t, err)
}

func TestLoadParsesLists(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"TAX_RULES_PATH":     "/etc/taxcore/rules.json",
		"REDIS_URL":          "redis://localhost:6379/0",
		"TAX_ENABLED_TYPES":  "european_union_vat",
		"TAX_VAT_ZONES":      "nl, de ,fr",
		"RATE_LIMIT_ENABLED": "off",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"european_union_vat"}, cfg.EnabledTaxTypes)
	assert.Equal(t, []string{"nl", "de", "fr"}, cfg.VATZoneIDs)
	assert.False(t, cfg.RateLimitEnabled)
}
