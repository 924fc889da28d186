package navigator

import (
	"strings"

	"github.com/normanking/alquad/internal/decision"
)

// Drive-letter paths come back from the oracle with backslashes even when
// the host uses slashes, so these helpers accept either separator.

func isSep(r rune) bool { return r == '/' || r == '\\' }

func baseName(p string) string {
	p = strings.TrimRightFunc(p, isSep)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func parentDir(p string) string {
	trimmed := strings.TrimRightFunc(p, isSep)
	i := strings.LastIndexAny(trimmed, `/\`)
	switch {
	case i < 0:
		return p
	case i == 0:
		return trimmed[:1]
	case decision.IsDrivePath(trimmed) && i == 2:
		return trimmed[:3]
	}
	return trimmed[:i]
}

// visitKey canonicalizes a path for the visited set. Drive paths compare
// case-insensitively.
func visitKey(p string) string {
	n := decision.NormalizePath(p)
	if decision.IsDrivePath(n) {
		return strings.ToLower(n)
	}
	return n
}

func samePath(a, b string) bool {
	return visitKey(a) == visitKey(b)
}

// relativeTo returns the part of p below dir, in canonical form, or p's
// base name when p is not inside dir.
func relativeTo(dir, p string) string {
	kd, kp := visitKey(dir), visitKey(p)
	if rest, ok := strings.CutPrefix(kp, kd); ok && rest != "" {
		if strings.HasSuffix(kd, "/") || strings.HasSuffix(kd, `\`) || isSep(rune(rest[0])) {
			return rest
		}
	}
	return baseName(p)
}
