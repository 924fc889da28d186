// Package platform enumerates the partitions alquad searches.
// On Windows these are the mounted drive letters; elsewhere the file system
// root, unless the configuration lists roots explicitly.
package platform

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/normanking/alquad/internal/config"
	"github.com/normanking/alquad/internal/decision"
)

// Partition is a top-level search root.
type Partition struct {
	Root   string `json:"root"`
	Letter string `json:"letter,omitempty"` // "D" for D:\ or a configured alias
}

// String returns a human-readable description of the partition.
func (p Partition) String() string {
	if p.Letter != "" && !decision.IsDrivePath(p.Root) {
		return fmt.Sprintf("%s (%s:)", p.Root, p.Letter)
	}
	return p.Root
}

// Label is the name used in prompts and messages, "D:" or the root path.
func (p Partition) Label() string {
	if p.Letter != "" {
		return p.Letter + ":"
	}
	return p.Root
}

// Detector provides cached partition enumeration.
type Detector struct {
	fs   afero.Fs
	goos string

	mu     sync.RWMutex
	cached []Partition
}

// NewDetector creates a detector probing fsys.
func NewDetector(fsys afero.Fs) *Detector {
	return &Detector{fs: fsys, goos: runtime.GOOS}
}

// Detect enumerates partitions once and returns the cached result afterwards.
// Configured partitions replace detection when present.
func (d *Detector) Detect(overrides []config.PartitionConfig) []Partition {
	d.mu.RLock()
	if d.cached != nil {
		cached := d.cached
		d.mu.RUnlock()
		return cached
	}
	d.mu.RUnlock()

	var parts []Partition
	if len(overrides) > 0 {
		parts = FromConfig(overrides)
	} else {
		parts = d.probe()
	}

	labels := make([]string, len(parts))
	for i, p := range parts {
		labels[i] = p.Label()
	}
	log.Debug().Strs("partitions", labels).Str("os", d.goos).Msg("partitions detected")

	d.mu.Lock()
	d.cached = parts
	d.mu.Unlock()
	return parts
}

// InvalidateCache forces the next Detect to enumerate again.
func (d *Detector) InvalidateCache() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

func (d *Detector) probe() []Partition {
	if d.goos != "windows" {
		return []Partition{{Root: "/"}}
	}

	var parts []Partition
	for c := 'A'; c <= 'Z'; c++ {
		root := string(c) + `:\`
		if ok, _ := afero.DirExists(d.fs, root); ok {
			parts = append(parts, Partition{Root: root, Letter: string(c)})
		}
	}
	return parts
}

// FromConfig converts configured roots, deriving the letter from drive
// roots that do not name one.
func FromConfig(pcs []config.PartitionConfig) []Partition {
	parts := make([]Partition, 0, len(pcs))
	for _, pc := range pcs {
		if pc.Root == "" {
			continue
		}
		p := Partition{Root: pc.Root, Letter: strings.ToUpper(strings.TrimSuffix(pc.Letter, ":"))}
		if decision.IsDrivePath(pc.Root) {
			p.Root = decision.NormalizePath(pc.Root)
			if p.Letter == "" {
				p.Letter = strings.ToUpper(pc.Root[:1])
			}
		}
		parts = append(parts, p)
	}
	return parts
}

// Find returns the partition answering to letter, case-insensitively.
func Find(parts []Partition, letter string) (Partition, bool) {
	letter = strings.ToUpper(strings.TrimSuffix(letter, ":"))
	for _, p := range parts {
		if p.Letter != "" && p.Letter == letter {
			return p, true
		}
	}
	return Partition{}, false
}

// Order returns parts with the deferred partition moved to the end.
// The deferred root may be given as "C:\", "C:" or "C".
func Order(parts []Partition, deferred string) []Partition {
	ordered := make([]Partition, 0, len(parts))
	var last []Partition
	for _, p := range parts {
		if deferred != "" && matchesRoot(p, deferred) {
			last = append(last, p)
			continue
		}
		ordered = append(ordered, p)
	}
	return append(ordered, last...)
}

func matchesRoot(p Partition, root string) bool {
	if strings.EqualFold(p.Root, root) {
		return true
	}
	letter := strings.TrimSuffix(strings.TrimSuffix(root, `\`), ":")
	return len(letter) == 1 && strings.EqualFold(p.Letter, letter)
}
