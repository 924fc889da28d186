// Package scanner lists and classifies the contents of a single directory.
// It reads through an afero.Fs so the same code runs against the real disk
// and against in-memory trees in tests.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/normanking/alquad/internal/match"
)

// Errors returned by List. Callers treat both as "no match here, continue".
var (
	ErrPathNotFound     = errors.New("path not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// DefaultMaxItems caps each category of a listing when no limit is given.
const DefaultMaxItems = 50

// Entry is one classified directory item.
type Entry struct {
	Name string // Base name as found on disk
	Path string // Full path
}

// Listing is the classified view of one directory. Listings returned from the
// cache are shared; callers must not modify them.
type Listing struct {
	Path        string
	Folders     []Entry
	Executables []Entry
	OtherFiles  []Entry

	// Totals before truncation.
	TotalFolders     int
	TotalExecutables int
	TotalOtherFiles  int
}

// IsEmpty reports whether no item survived classification.
func (l *Listing) IsEmpty() bool {
	return l == nil || len(l.Folders)+len(l.Executables)+len(l.OtherFiles) == 0
}

// Rules control how directory items are classified.
type Rules struct {
	SetupKeywords        []string
	ExecutableExtensions []string
	OtherExtensions      []string
	SkipNames            []string // case-insensitive substrings
	MaxItems             int
}

// DefaultRules returns the stock classification rules.
func DefaultRules() Rules {
	return Rules{
		SetupKeywords:        []string{"setup", "install", "installer", "uninstall"},
		ExecutableExtensions: []string{".exe", ".lnk", ".bat", ".msi", ".appx"},
		OtherExtensions: []string{
			".py", ".sln", ".jar", ".app", ".pdf", ".doc", ".docx", ".txt",
			".jpg", ".jpeg", ".png", ".gif", ".bmp", ".mp4", ".mp3",
			".ppt", ".pptx", ".xls", ".xlsx",
		},
		SkipNames: []string{
			"system volume information",
			"$recycle.bin",
			"node_modules",
			"__pycache__",
		},
		MaxItems: DefaultMaxItems,
	}
}

// IsSetupName reports whether text contains any setup keyword.
func (r Rules) IsSetupName(text string) bool {
	return match.HasSetupKeyword(text, r.SetupKeywords)
}

// ListOptions tune a single List call.
type ListOptions struct {
	MaxItems     int  // <= 0 uses the rules' limit
	UseCache     bool // read and write the listing cache
	IncludeSetup bool // keep setup-flavored executables
}

// Scanner lists directories. A nil cache disables caching.
type Scanner struct {
	fs    afero.Fs
	rules Rules
	cache *ListingCache
}

// New creates a Scanner over fsys.
func New(fsys afero.Fs, rules Rules, cache *ListingCache) *Scanner {
	if rules.MaxItems <= 0 {
		rules.MaxItems = DefaultMaxItems
	}
	return &Scanner{fs: fsys, rules: rules, cache: cache}
}

// Rules returns the classification rules in effect.
func (s *Scanner) Rules() Rules { return s.rules }

// Cache returns the listing cache, which may be nil.
func (s *Scanner) Cache() *ListingCache { return s.cache }

// List reads and classifies the directory at path.
func (s *Scanner) List(path string, opts ListOptions) (*Listing, error) {
	limit := opts.MaxItems
	if limit <= 0 {
		limit = s.rules.MaxItems
	}

	key := cacheKey(path, limit, opts.IncludeSetup)
	if opts.UseCache && s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			log.Trace().Str("path", path).Msg("listing cache hit")
			return cached, nil
		}
	}

	infos, err := afero.ReadDir(s.fs, path)
	if err != nil {
		return nil, classifyError(path, err)
	}

	listing := &Listing{Path: path}
	for _, info := range infos {
		name := info.Name()
		if s.skipped(name) {
			continue
		}

		full := filepath.Join(path, name)
		isDir := info.IsDir()
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := s.fs.Stat(full)
			if err != nil {
				continue
			}
			isDir = target.IsDir()
		}

		entry := Entry{Name: name, Path: full}
		switch {
		case isDir:
			listing.Folders = append(listing.Folders, entry)
		case hasExtension(name, s.rules.ExecutableExtensions):
			if !opts.IncludeSetup && s.rules.IsSetupName(name) {
				continue
			}
			listing.Executables = append(listing.Executables, entry)
		case hasExtension(name, s.rules.OtherExtensions):
			listing.OtherFiles = append(listing.OtherFiles, entry)
		}
	}

	listing.TotalFolders = len(listing.Folders)
	listing.TotalExecutables = len(listing.Executables)
	listing.TotalOtherFiles = len(listing.OtherFiles)
	listing.Folders = truncate(listing.Folders, limit)
	listing.Executables = truncate(listing.Executables, limit)
	listing.OtherFiles = truncate(listing.OtherFiles, limit)

	if opts.UseCache && s.cache != nil {
		s.cache.Put(key, listing)
	}
	return listing, nil
}

// Exists reports whether path exists.
func (s *Scanner) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// Canonical returns path with symlinks resolved when listing the host
// disk. Other file systems, and paths that cannot be resolved, come back
// unchanged.
func (s *Scanner) Canonical(path string) string {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return path
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return real
}

// IsDir reports whether path exists and is a directory.
func (s *Scanner) IsDir(path string) bool {
	ok, err := afero.IsDir(s.fs, path)
	return err == nil && ok
}

func (s *Scanner) skipped(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	for _, skip := range s.rules.SkipNames {
		if skip != "" && strings.Contains(lower, strings.ToLower(skip)) {
			return true
		}
	}
	return false
}

func classifyError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	default:
		return fmt.Errorf("read directory %s: %w", path, err)
	}
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func truncate(entries []Entry, limit int) []Entry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func cacheKey(path string, limit int, includeSetup bool) string {
	return fmt.Sprintf("%s|%d|%t", path, limit, includeSetup)
}
