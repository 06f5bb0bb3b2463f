// Package playbook implements the evolving knowledge store used by the
// adaptation loop: atomic knowledge items ("bullets") grouped into named
// sections, mutated through single-bullet operations or delta batches.
//
// A Playbook provides no internal locking. Sharing one across goroutines
// requires the caller to serialize access.
package playbook

import (
	"fmt"
)

// Tag names recognized by TagBullet and TAG delta operations.
const (
	TagHelpful = "helpful"
	TagHarmful = "harmful"
	TagNeutral = "neutral"
)

// Bullet is a single knowledge item with helpfulness counters.
type Bullet struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Content string `json:"content"`
	Helpful int    `json:"helpful"`
	Harmful int    `json:"harmful"`
	Neutral int    `json:"neutral"`
}

// String formats the bullet for prompt rendering.
func (b *Bullet) String() string {
	return fmt.Sprintf("[%s] helpful=%d harmful=%d neutral=%d :: %s",
		b.ID, b.Helpful, b.Harmful, b.Neutral, b.Content)
}

// counter returns a pointer to the named counter, or nil for unknown tags.
func (b *Bullet) counter(tag string) *int {
	switch tag {
	case TagHelpful:
		return &b.Helpful
	case TagHarmful:
		return &b.Harmful
	case TagNeutral:
		return &b.Neutral
	default:
		return nil
	}
}

// setCounters assigns the named counters from metadata. Unknown keys are
// ignored.
func (b *Bullet) setCounters(metadata map[string]int) {
	for tag, value := range metadata {
		if c := b.counter(tag); c != nil {
			*c = value
		}
	}
}
