package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFs records how often each path is opened.
type countingFs struct {
	afero.Fs
	opens map[string]int
}

func newCountingFs(base afero.Fs) *countingFs {
	return &countingFs{Fs: base, opens: make(map[string]int)}
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens[name]++
	return c.Fs.Open(name)
}

func makeTree(t *testing.T, fsys afero.Fs, dirs []string, files []string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, fsys.MkdirAll(d, 0o755))
	}
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fsys, f, []byte("x"), 0o644))
	}
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestList_Classification(t *testing.T) {
	fsys := afero.NewMemMapFs()
	makeTree(t, fsys,
		[]string{"/d/Games", "/d/Tools", "/d/.git", "/d/node_modules", "/d/$RECYCLE.BIN"},
		[]string{
			"/d/steam.exe",
			"/d/launcher.LNK",
			"/d/setup.exe",
			"/d/Uninstall Tool.exe",
			"/d/notes.txt",
			"/d/photo.JPG",
			"/d/archive.zip",
			"/d/.hidden.exe",
		})

	s := New(fsys, DefaultRules(), nil)
	listing, err := s.List("/d", ListOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Games", "Tools"}, names(listing.Folders))
	assert.Equal(t, []string{"launcher.LNK", "steam.exe"}, names(listing.Executables))
	assert.Equal(t, []string{"notes.txt", "photo.JPG"}, names(listing.OtherFiles))
	assert.Equal(t, "/d/steam.exe", listing.Executables[1].Path)
	assert.Equal(t, 2, listing.TotalFolders)
	assert.Equal(t, 2, listing.TotalExecutables)
}

func TestList_SetupExecutables(t *testing.T) {
	fsys := afero.NewMemMapFs()
	makeTree(t, fsys, []string{"/apps"}, []string{
		"/apps/app.exe",
		"/apps/Setup_v2.exe",
		"/apps/installer.msi",
		"/apps/uninstall.exe",
	})
	s := New(fsys, DefaultRules(), nil)

	t.Run("excluded by default", func(t *testing.T) {
		listing, err := s.List("/apps", ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"app.exe"}, names(listing.Executables))
	})

	t.Run("included when asked", func(t *testing.T) {
		listing, err := s.List("/apps", ListOptions{IncludeSetup: true})
		require.NoError(t, err)
		assert.Len(t, listing.Executables, 4)
	})
}

func TestList_Truncation(t *testing.T) {
	fsys := afero.NewMemMapFs()
	var files []string
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, "/many/"+n+".txt")
	}
	makeTree(t, fsys, []string{"/many"}, files)

	s := New(fsys, DefaultRules(), nil)
	listing, err := s.List("/many", ListOptions{MaxItems: 3})
	require.NoError(t, err)

	assert.Len(t, listing.OtherFiles, 3)
	assert.Equal(t, 5, listing.TotalOtherFiles)
}

func TestList_Errors(t *testing.T) {
	s := New(afero.NewMemMapFs(), DefaultRules(), nil)
	_, err := s.List("/missing", ListOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestList_CacheIdempotence(t *testing.T) {
	base := afero.NewMemMapFs()
	makeTree(t, base, []string{"/d/Google"}, []string{"/d/readme.txt"})
	fsys := newCountingFs(base)

	cache, err := NewListingCache(10, time.Minute)
	require.NoError(t, err)
	s := New(fsys, DefaultRules(), cache)

	first, err := s.List("/d", ListOptions{UseCache: true})
	require.NoError(t, err)
	second, err := s.List("/d", ListOptions{UseCache: true})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fsys.opens["/d"])

	// Bypassing the cache reads again.
	_, err = s.List("/d", ListOptions{UseCache: false})
	require.NoError(t, err)
	assert.Equal(t, 2, fsys.opens["/d"])
}

func TestList_CacheSeparatesSetupVariant(t *testing.T) {
	base := afero.NewMemMapFs()
	makeTree(t, base, []string{"/x"}, []string{"/x/setup.exe"})
	cache, err := NewListingCache(10, time.Minute)
	require.NoError(t, err)
	s := New(base, DefaultRules(), cache)

	plain, err := s.List("/x", ListOptions{UseCache: true})
	require.NoError(t, err)
	withSetup, err := s.List("/x", ListOptions{UseCache: true, IncludeSetup: true})
	require.NoError(t, err)

	assert.Empty(t, plain.Executables)
	assert.Len(t, withSetup.Executables, 1)
}

func TestListingCache_LRU(t *testing.T) {
	cache, err := NewListingCache(2, 0)
	require.NoError(t, err)

	a, b, c := &Listing{Path: "a"}, &Listing{Path: "b"}, &Listing{Path: "c"}
	cache.Put("a", a)
	cache.Put("b", b)

	_, ok := cache.Get("a") // a becomes most recent
	require.True(t, ok)

	cache.Put("c", c)

	_, ok = cache.Get("b")
	assert.False(t, ok, "b should be evicted as least recently used")
	got, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 2, cache.Len())
}

func TestListingCache_TTL(t *testing.T) {
	cache, err := NewListingCache(5, 30*time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.SetClock(func() time.Time { return now })
	cache.Put("k", &Listing{Path: "k"})

	now = now.Add(29 * time.Minute)
	_, ok := cache.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entry is removed on read")
}

func TestFormat(t *testing.T) {
	listing := &Listing{
		Path:             "/d",
		Folders:          []Entry{{Name: "Google", Path: "/d/Google"}},
		Executables:      []Entry{{Name: "steam.exe", Path: "/d/steam.exe"}},
		OtherFiles:       []Entry{{Name: "cv.pdf", Path: "/d/cv.pdf"}},
		TotalFolders:     1,
		TotalExecutables: 1,
		TotalOtherFiles:  1,
	}

	want := strings.Join([]string{
		"FOLDERS:",
		"  - Google -> /d/Google",
		"",
		"EXECUTABLES:",
		"  - steam.exe -> /d/steam.exe",
		"",
		"OTHER FILES:",
		"  - cv.pdf -> /d/cv.pdf",
		"",
		"Total: 1 folders, 1 executables",
	}, "\n")
	assert.Equal(t, want, Format(listing))
}

func TestFormat_CapsOtherFilesAndHandlesEmpty(t *testing.T) {
	var others []Entry
	for i := 0; i < 15; i++ {
		others = append(others, Entry{Name: "f.txt", Path: "/d/f.txt"})
	}
	out := Format(&Listing{OtherFiles: others, TotalOtherFiles: 15})
	assert.Equal(t, 10, strings.Count(out, "  - f.txt"))
	assert.True(t, strings.HasSuffix(out, "Total: 0 folders, 0 executables"))

	assert.Equal(t, EmptyListingText, Format(&Listing{}))
}

func TestRules_IsSetupName(t *testing.T) {
	rules := DefaultRules()
	assert.True(t, rules.IsSetupName("Steam Installer.exe"))
	assert.False(t, rules.IsSetupName("steam.exe"))

	rules.SetupKeywords = []string{"Patch"}
	assert.True(t, rules.IsSetupName("game_patch.exe"))
}

func TestCanonical(t *testing.T) {
	mem := New(afero.NewMemMapFs(), DefaultRules(), nil)
	assert.Equal(t, "/d/Loop", mem.Canonical("/d/Loop"), "in-memory trees are returned unchanged")

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	disk := New(afero.NewOsFs(), DefaultRules(), nil)
	assert.Equal(t, filepath.Join(root, "real"), disk.Canonical(filepath.Join(root, "link")))
	missing := filepath.Join(root, "missing")
	assert.Equal(t, missing, disk.Canonical(missing))
}
