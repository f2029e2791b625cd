package mentor

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/adrg/frontmatter"
)

//go:embed assets/*.md
var staticAssetsFS embed.FS

// staticMeta mirrors the teacher's NoteMeta shape (YAML frontmatter over
// a markdown body), narrowed to the two keys the bank indexes on.
type staticMeta struct {
	Intent string   `yaml:"intent"`
	Slot   string   `yaml:"slot"`
	Tags   []string `yaml:"tags"`
}

type bankKey struct {
	intent string
	slot   string
}

// StaticResponseBank is a read-only (intent, slot) -> canned response
// table, loaded once at startup from code-embedded markdown assets and
// never mutated afterward.
type StaticResponseBank struct {
	entries map[bankKey]string
}

// LoadStaticResponseBank parses every embedded asset's frontmatter and
// body, grounded directly on the teacher's indexer.ParseNote.
func LoadStaticResponseBank() (*StaticResponseBank, error) {
	bank := &StaticResponseBank{entries: make(map[bankKey]string)}

	err := fs.WalkDir(staticAssetsFS, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		raw, err := staticAssetsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var meta staticMeta
		body, err := frontmatter.Parse(strings.NewReader(string(raw)), &meta)
		if err != nil {
			return fmt.Errorf("parse frontmatter %s: %w", path, err)
		}
		if meta.Intent == "" || meta.Slot == "" {
			return fmt.Errorf("asset %s missing intent/slot frontmatter", path)
		}

		key := bankKey{intent: strings.ToLower(meta.Intent), slot: strings.ToLower(meta.Slot)}
		bank.entries[key] = strings.TrimSpace(string(body))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bank, nil
}

// Lookup is a constant-time read-only map access.
func (b *StaticResponseBank) Lookup(intent, slot string) (string, bool) {
	key := bankKey{intent: strings.ToLower(intent), slot: strings.ToLower(slot)}
	v, ok := b.entries[key]
	return v, ok
}

// lastResortIntent/Slot name the always-present fallback candidate used
// when the generative path is unavailable (breaker open, generation
// failure) and no relevance gate should apply, per §4.12 step 7.
const (
	lastResortIntent = "fallback"
	lastResortSlot   = "unavailable"
)

// LastResort returns the bank's designated fallback candidate, used
// without the relevance gate when the dynamic path cannot be completed.
func (b *StaticResponseBank) LastResort() (string, bool) {
	return b.Lookup(lastResortIntent, lastResortSlot)
}
