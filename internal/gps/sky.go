package gps

import (
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"gpsreader/internal/nmea"
)

const defaultSkyTTL = 30 * time.Second

// SkySatellite is a satellite from the merged sky view.
type SkySatellite struct {
	nmea.Satellite
	Used        bool   `json:"used"`
	LastSeenUTC string `json:"last_seen_utc"`
}

type skyEntry struct {
	sat  nmea.Satellite
	seen time.Time
}

// Sky merges the satellites of multi-part GSV sequences. A single GSV
// sentence only carries up to four satellites; entries expire after the TTL
// instead of being dropped on the next sentence.
type Sky struct {
	c *cache.Cache
}

func NewSky(ttl time.Duration) *Sky {
	if ttl <= 0 {
		ttl = defaultSkyTTL
	}
	return &Sky{c: cache.New(ttl, 2*ttl)}
}

func (k *Sky) Observe(sats []nmea.Satellite, now time.Time) {
	for _, s := range sats {
		if s.ID == "" {
			continue
		}
		k.c.SetDefault(s.ID, skyEntry{sat: s, seen: now})
	}
}

// View returns the unexpired satellites ordered by PRN. used marks the
// satellites that contributed to the fix.
func (k *Sky) View(used []string) []SkySatellite {
	inUse := make(map[int]bool, len(used))
	for _, id := range used {
		if n, err := strconv.Atoi(id); err == nil {
			inUse[n] = true
		}
	}

	items := k.c.Items()
	out := make([]SkySatellite, 0, len(items))
	for _, it := range items {
		e := it.Object.(skyEntry)
		n, err := strconv.Atoi(e.sat.ID)
		out = append(out, SkySatellite{
			Satellite:   e.sat,
			Used:        err == nil && inUse[n],
			LastSeenUTC: e.seen.UTC().Format(time.RFC3339Nano),
		})
	}
	sort.Slice(out, func(i, j int) bool { return prnLess(out[i].ID, out[j].ID) })
	return out
}

func prnLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}

func (k *Sky) Len() int { return len(k.c.Items()) }
