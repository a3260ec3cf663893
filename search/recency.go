package search

import "time"

const (
	recencyBase      = 50000
	recencyCapMinute = 45000
)

// RecencyBonus decays linearly by one point per minute of age and bottoms out
// at recencyBase-recencyCapMinute. Anchors in the future count as age zero.
func RecencyBonus(anchor, now time.Time) int64 {
	age := int64(now.Sub(anchor) / time.Minute)
	age = min(max(age, 0), recencyCapMinute)
	return recencyBase - age
}
