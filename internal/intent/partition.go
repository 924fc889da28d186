package intent

import (
	"regexp"
	"strings"

	"github.com/normanking/alquad/internal/platform"
)

// partitionRe accepts "d", "d:", "d:\", "d:/", "d drive" with an optional
// leading "open".
var partitionRe = regexp.MustCompile(`^(?:open\s+)?([a-z])(?::[\\/]?)?(?:\s+drive)?$`)

// PartitionRequestDetector recognizes requests to open a whole partition.
type PartitionRequestDetector struct {
	partitions []platform.Partition
}

// NewPartitionRequestDetector creates a detector over the known partitions.
func NewPartitionRequestDetector(parts []platform.Partition) *PartitionRequestDetector {
	return &PartitionRequestDetector{partitions: parts}
}

// Classify returns the requested partition, or nil when query is anything
// else or names a letter that is not mounted.
func (d *PartitionRequestDetector) Classify(query string) *platform.Partition {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimRight(q, ".!")
	m := partitionRe.FindStringSubmatch(q)
	if m == nil {
		return nil
	}
	p, ok := platform.Find(d.partitions, m[1])
	if !ok {
		return nil
	}
	return &p
}
