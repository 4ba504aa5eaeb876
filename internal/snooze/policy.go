package snooze

import (
	"sort"
	"time"
)

// Policy computes snooze durations from the configured escalation tiers.
type Policy struct {
	tiers []int // durations in hours, sorted ascending
}

// NewPolicy creates a policy from the configured tier durations. The
// input does not need to be sorted.
func NewPolicy(tierHours []int) *Policy {
	tiers := make([]int, 0, len(tierHours))
	for _, h := range tierHours {
		if h > 0 {
			tiers = append(tiers, h)
		}
	}
	sort.Ints(tiers)
	return &Policy{tiers: tiers}
}

// Tiers returns the sorted tier durations.
func (p *Policy) Tiers() []int {
	out := make([]int, len(p.tiers))
	copy(out, p.tiers)
	return out
}

// NextInterval picks the duration for an incremental snooze, in hours.
//
// A note with a live entry advances one tier past its recorded interval,
// saturating at the largest tier; an interval not found in the configured
// list also snaps to the largest tier. A note with no entry, or whose
// entry has expired, starts over at the smallest tier.
func (p *Policy) NextInterval(entry *Entry, now time.Time) int {
	if len(p.tiers) == 0 {
		return 0
	}
	if entry == nil || !entry.Active(now) {
		return p.tiers[0]
	}
	idx := -1
	for i, d := range p.tiers {
		if d == entry.Interval {
			idx = i
			break
		}
	}
	if idx >= 0 && idx < len(p.tiers)-1 {
		return p.tiers[idx+1]
	}
	return p.tiers[len(p.tiers)-1]
}

// ExpireAfter returns the expiry for a snooze of the given duration taken
// at the given instant.
func ExpireAfter(now time.Time, hours int) time.Time {
	return now.Add(time.Duration(hours) * time.Hour)
}
