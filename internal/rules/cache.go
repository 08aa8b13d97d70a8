package rules

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache shares loaded rule snapshots between the API and worker processes via
// Redis, keyed by snapshot version. The snapshot itself stays immutable; the
// cache only moves the serialized document around.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// LatestVersion is the alias Put maintains alongside the versioned key, so a
// consumer without a concrete version can still fetch the newest snapshot.
const LatestVersion = "latest"

// NewCache constructs a snapshot cache.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "taxcore:rules"
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) key(version string) string {
	return c.prefix + ":" + version
}

// Get fetches and decodes a cached snapshot. It reports whether the version
// was present.
func (c *Cache) Get(ctx context.Context, version string) (*Snapshot, bool, error) {
	if c == nil || c.client == nil || version == "" {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, c.key(version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	snap, err := Parse(raw)
	if err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// Put stores the snapshot's serialized document under its version and under
// the latest alias.
func (c *Cache) Put(ctx context.Context, snap *Snapshot) error {
	if c == nil || c.client == nil || snap == nil || snap.Version == "" {
		return nil
	}
	raw, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(snap.Version), raw, c.ttl).Err(); err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(LatestVersion), raw, c.ttl).Err()
}

// Encode serializes the snapshot back to its document form.
func (s *Snapshot) Encode() ([]byte, error) {
	doc := snapshotFile{Version: s.Version}
	for _, z := range s.zones {
		zf := zoneFile{ID: z.ID, Label: z.Label}
		for _, m := range z.Matchers {
			zf.Matchers = append(zf.Matchers, matcherFile{
				CountryCode: m.CountryCode,
				Subdivision: m.Subdivision,
			})
		}
		for _, r := range s.schedules[z.ID] {
			rf := rateFile{ID: r.ID, Percentage: r.Percentage.String()}
			if r.From != nil {
				rf.From = r.From.Format("2006-01-02")
			}
			if r.To != nil {
				rf.To = r.To.Format("2006-01-02")
			}
			zf.Rates = append(zf.Rates, rf)
		}
		doc.Zones = append(doc.Zones, zf)
	}
	return json.Marshal(doc)
}
