package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/taxcore/internal/jurisdiction"
)

// snapshotFile is the on-disk JSON shape of a rule snapshot.
type snapshotFile struct {
	Version string     `json:"version"`
	Zones   []zoneFile `json:"zones"`
}

type zoneFile struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Matchers []matcherFile `json:"matchers"`
	Rates    []rateFile    `json:"rates"`
}

type matcherFile struct {
	CountryCode string `json:"country_code"`
	Subdivision string `json:"subdivision,omitempty"`
}

type rateFile struct {
	ID         string `json:"id"`
	Percentage string `json:"percentage"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

// LoadFile reads and validates a rule snapshot from a JSON file. The service
// layer loads it once at startup; the engine only ever sees the immutable
// result.
func LoadFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a JSON snapshot document.
func Parse(raw []byte) (*Snapshot, error) {
	var doc snapshotFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("rules: decode snapshot: %w", err)
	}
	zones := make([]jurisdiction.Zone, 0, len(doc.Zones))
	schedules := map[string][]Rate{}
	for _, zf := range doc.Zones {
		zone := jurisdiction.Zone{ID: zf.ID, Label: zf.Label}
		for _, mf := range zf.Matchers {
			zone.Matchers = append(zone.Matchers, jurisdiction.Matcher{
				CountryCode: mf.CountryCode,
				Subdivision: mf.Subdivision,
			})
		}
		zones = append(zones, zone)

		for _, rf := range zf.Rates {
			pct, err := decimal.NewFromString(rf.Percentage)
			if err != nil {
				return nil, fmt.Errorf("rules: zone %q rate %q: parse percentage: %w", zf.ID, rf.ID, err)
			}
			rate := Rate{ID: rf.ID, Percentage: pct}
			if rate.From, err = parseDate(rf.From); err != nil {
				return nil, fmt.Errorf("rules: zone %q rate %q: %w", zf.ID, rf.ID, err)
			}
			if rate.To, err = parseDate(rf.To); err != nil {
				return nil, fmt.Errorf("rules: zone %q rate %q: %w", zf.ID, rf.ID, err)
			}
			schedules[zf.ID] = append(schedules[zf.ID], rate)
		}
	}
	return NewSnapshot(doc.Version, zones, schedules)
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", value, err)
	}
	return &t, nil
}
