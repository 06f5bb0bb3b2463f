package playbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/XiaoConstantine/ace-go/pkg/errors"
)

// Playbook is the aggregate store of bullets. Bullets keep insertion order
// for deterministic prompt rendering; ids are never reused within a process
// run, even after removal.
type Playbook struct {
	bullets map[string]*Bullet
	order   []string
	seq     int
}

// New creates an empty playbook.
func New() *Playbook {
	return &Playbook{
		bullets: make(map[string]*Bullet),
	}
}

// Stats summarizes the current playbook state, always computed fresh.
type Stats struct {
	Sections int       `json:"sections"`
	Bullets  int       `json:"bullets"`
	Tags     TagCounts `json:"tags"`
}

// TagCounts totals the per-bullet counters.
type TagCounts struct {
	Helpful int `json:"helpful"`
	Harmful int `json:"harmful"`
	Neutral int `json:"neutral"`
}

func sectionSlug(section string) string {
	slug := strings.ToLower(strings.TrimSpace(section))
	slug = strings.Join(strings.Fields(slug), "-")
	if slug == "" {
		slug = "general"
	}
	return slug
}

// AddBullet allocates a fresh unique id, inserts a new bullet, and returns
// it. Metadata may seed the counters. Never fails.
func (p *Playbook) AddBullet(section, content string, metadata map[string]int) *Bullet {
	p.seq++
	bullet := &Bullet{
		ID:      fmt.Sprintf("%s-%05d", sectionSlug(section), p.seq),
		Section: section,
		Content: content,
	}
	bullet.setCounters(metadata)

	p.bullets[bullet.ID] = bullet
	p.order = append(p.order, bullet.ID)
	return bullet
}

// UpdateBullet replaces the content (when non-empty) and assigns counters
// from metadata. Returns nil when the id is unknown; this is the soft-miss
// contract used by forgiving callers, not an error.
func (p *Playbook) UpdateBullet(id, content string, metadata map[string]int) *Bullet {
	bullet, ok := p.bullets[id]
	if !ok {
		return nil
	}
	if content != "" {
		bullet.Content = content
	}
	bullet.setCounters(metadata)
	return bullet
}

// TagBullet increments the named counter by amount. Unlike UpdateBullet this
// is the strict path: unknown ids and invalid tag names fail.
func (p *Playbook) TagBullet(id, tag string, amount int) (*Bullet, error) {
	bullet, ok := p.bullets[id]
	if !ok {
		return nil, errs.WithFields(
			errs.New(errs.ValidationFailed, "unknown bullet id"),
			errs.Fields{"bullet_id": id})
	}
	c := bullet.counter(tag)
	if c == nil {
		return nil, errs.WithFields(
			errs.New(errs.ValidationFailed, "invalid tag name"),
			errs.Fields{"tag": tag})
	}
	*c += amount
	return bullet, nil
}

// RemoveBullet deletes the bullet. Returns false when the id is absent.
func (p *Playbook) RemoveBullet(id string) bool {
	if _, ok := p.bullets[id]; !ok {
		return false
	}
	delete(p.bullets, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// GetBullet returns the bullet with the given id, or nil.
func (p *Playbook) GetBullet(id string) *Bullet {
	return p.bullets[id]
}

// Bullets returns all bullets in insertion order.
func (p *Playbook) Bullets() []*Bullet {
	out := make([]*Bullet, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.bullets[id])
	}
	return out
}

// sectionOrder returns section names in first-insertion order.
func (p *Playbook) sectionOrder() []string {
	var sections []string
	seen := make(map[string]bool)
	for _, id := range p.order {
		section := p.bullets[id].Section
		if !seen[section] {
			seen[section] = true
			sections = append(sections, section)
		}
	}
	return sections
}

// AsPrompt renders the playbook as a section-grouped text block for prompt
// injection. An empty playbook renders to an empty string; callers substitute
// their own placeholder.
func (p *Playbook) AsPrompt() string {
	if len(p.order) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, section := range p.sectionOrder() {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s\n", section)
		for _, id := range p.order {
			if bullet := p.bullets[id]; bullet.Section == section {
				sb.WriteString(bullet.String())
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// Stats computes current playbook statistics from bullet state.
func (p *Playbook) Stats() Stats {
	stats := Stats{Bullets: len(p.bullets)}
	sections := make(map[string]bool)
	for _, bullet := range p.bullets {
		sections[bullet.Section] = true
		stats.Tags.Helpful += bullet.Helpful
		stats.Tags.Harmful += bullet.Harmful
		stats.Tags.Neutral += bullet.Neutral
	}
	stats.Sections = len(sections)
	return stats
}

// snapshot is the stable serialized form. The sections member exists for
// human inspection; loading reconstructs groupings from the bullet records
// alone.
type snapshot struct {
	Sections map[string][]string `json:"sections"`
	Bullets  []Bullet            `json:"bullets"`
}

type rawSnapshot struct {
	Bullets *[]Bullet `json:"bullets"`
}

// Dumps serializes the playbook to its stable JSON form.
func (p *Playbook) Dumps() (string, error) {
	snap := snapshot{
		Sections: make(map[string][]string),
		Bullets:  make([]Bullet, 0, len(p.order)),
	}
	for _, id := range p.order {
		bullet := p.bullets[id]
		snap.Sections[bullet.Section] = append(snap.Sections[bullet.Section], bullet.ID)
		snap.Bullets = append(snap.Bullets, *bullet)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", errs.Wrap(err, errs.Unknown, "failed to serialize playbook")
	}
	return string(data), nil
}

// Loads reconstructs a playbook from its serialized form. A missing or
// malformed bullets list is fatal.
func Loads(text string) (*Playbook, error) {
	var raw rawSnapshot
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errs.Wrap(err, errs.ParseFailed, "malformed playbook data")
	}
	if raw.Bullets == nil {
		return nil, errs.New(errs.ParseFailed, "playbook data has no bullets list")
	}

	p := New()
	for _, record := range *raw.Bullets {
		bullet := record
		p.bullets[bullet.ID] = &bullet
		p.order = append(p.order, bullet.ID)

		// Advance the sequence past any numeric id suffix so restored
		// playbooks keep allocating ids that were never used before.
		if n := idSequence(bullet.ID); n > p.seq {
			p.seq = n
		}
	}
	return p, nil
}

func idSequence(id string) int {
	i := strings.LastIndex(id, "-")
	if i < 0 || i == len(id)-1 {
		return 0
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// SaveToFile writes the serialized playbook, creating parent directories as
// needed. The write is atomic: a temp file is renamed into place.
func (p *Playbook) SaveToFile(path string) error {
	data, err := p.Dumps()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to create playbook directory")
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(data), 0644); err != nil {
		return errs.Wrap(err, errs.Unknown, "failed to write playbook file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(err, errs.Unknown, "failed to replace playbook file")
	}
	return nil
}

// LoadFromFile reads a serialized playbook from disk.
func LoadFromFile(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.WithFields(
			errs.Wrap(err, errs.ResourceNotFound, "playbook file not found"),
			errs.Fields{"path": path})
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.Unknown, "failed to read playbook file")
	}
	return Loads(string(data))
}
