package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"stop words removed", "open the chrome browser", []string{"chrome", "browser"}},
		{"single characters dropped", "launch x steam", []string{"steam"}},
		{"punctuation trimmed", `find "resume"?`, []string{"resume"}},
		{"all filtered falls back", "open the", []string{"open", "the"}},
		{"case folded", "DaVinci Resolve", []string{"davinci", "resolve"}},
		{"empty query", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.query))
		})
	}
}

func TestExpand(t *testing.T) {
	got := Expand([]string{"cv", "pdf"})
	assert.Equal(t, []string{"cv", "pdf", "resume", "resumes", "curriculum", "vitae"}, got)

	// Synonyms already present as keywords are not repeated.
	got = Expand([]string{"cert", "certs"})
	assert.Equal(t, []string{"cert", "certs", "certificate", "certificates"}, got)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"davinci", "resolve", "18"}, Tokens("DaVinci_Resolve-18"))
	assert.Empty(t, Tokens("--"))
}

func TestScore_ExactValues(t *testing.T) {
	s := NewScorer(DefaultWeights())

	m := s.Evaluate("Chrome", []string{"chrome"}, []string{"chrome"})
	assert.Equal(t, 21, m.Score)
	assert.True(t, m.Exact)
	assert.True(t, m.Simple)
	assert.Equal(t, 1, m.ImportantHits)

	// The extension does not change the rating.
	assert.Equal(t, m, s.Evaluate("chrome.exe", []string{"chrome"}, []string{"chrome"}))

	kw := []string{"cv"}
	m = s.Evaluate("Resume", kw, Expand(kw))
	assert.Equal(t, 9, m.Score)
	assert.True(t, m.Exact, "whole-word synonym hit counts as exact")
}

func TestScore_PureAndNonNegative(t *testing.T) {
	s := NewScorer(DefaultWeights())
	kw := Extract("open davinci resolve studio")
	exp := Expand(kw)

	names := []string{
		"DaVinci Resolve",
		"Blackmagic Design",
		"some totally unrelated very long folder name here",
		"",
		"resolve",
	}
	for _, n := range names {
		first := s.Score(n, kw, exp)
		assert.GreaterOrEqual(t, first, 0, n)
		assert.Equal(t, first, s.Score(n, kw, exp), "score must be deterministic for %q", n)
	}

	assert.Greater(t, s.Score("DaVinci Resolve", kw, exp), s.Score("resolve", kw, exp))
	assert.Equal(t, 0, s.Score("some totally unrelated very long folder name here", kw, exp))
}

func TestScore_DirectBeatsSynonym(t *testing.T) {
	s := NewScorer(DefaultWeights())
	kw := []string{"resume"}
	exp := Expand(kw)

	direct := s.Score("resume files", kw, exp)
	viaSynonym := s.Score("cv files", kw, exp)
	assert.Greater(t, direct, viaSynonym)
}

func TestRank(t *testing.T) {
	s := NewScorer(DefaultWeights())
	kw := Extract("open steam")
	exp := Expand(kw)

	ranked := s.Rank([]Candidate{
		{Name: "SteamLibrary backup old"},
		{Name: "Steam"},
		{Name: "Epic Games"},
	}, kw, exp)

	require.Len(t, ranked, 3)
	assert.Equal(t, "Steam", ranked[0].Name)
	assert.Equal(t, "Epic Games", ranked[2].Name)
}

func TestRank_StableOnTies(t *testing.T) {
	s := NewScorer(DefaultWeights())
	ranked := s.Rank([]Candidate{{Name: "alpha"}, {Name: "beta"}}, []string{"zzz"}, []string{"zzz"})
	assert.Equal(t, "alpha", ranked[0].Name)
	assert.Equal(t, "beta", ranked[1].Name)
}

func TestClearWinner(t *testing.T) {
	s := NewScorer(DefaultWeights())

	t.Run("empty", func(t *testing.T) {
		_, ok := s.ClearWinner(nil)
		assert.False(t, ok)
	})

	t.Run("no important hit", func(t *testing.T) {
		_, ok := s.ClearWinner([]Candidate{{Name: "x", Match: Match{Score: 50}}})
		assert.False(t, ok)
	})

	t.Run("exact wins", func(t *testing.T) {
		best, ok := s.ClearWinner([]Candidate{
			{Name: "a", Match: Match{Exact: true, ImportantHits: 1, Score: 1}},
			{Name: "b", Match: Match{ImportantHits: 1, Score: 1}},
		})
		require.True(t, ok)
		assert.Equal(t, "a", best.Name)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, ok := s.ClearWinner([]Candidate{
			{Name: "a", Match: Match{ImportantHits: 1, Score: 2}},
			{Name: "b", Match: Match{ImportantHits: 1, Score: 2}},
		})
		assert.False(t, ok)
	})

	t.Run("dominant score", func(t *testing.T) {
		_, ok := s.ClearWinner([]Candidate{
			{Name: "a", Match: Match{ImportantHits: 1, Score: 2}},
			{Name: "b", Match: Match{ImportantHits: 1, Score: 0}},
		})
		assert.True(t, ok)
	})
}

func TestFuzzyBest(t *testing.T) {
	names := []string{"Mozilla Firefox", "Google Chrome", "Notepad++"}

	assert.Equal(t, 1, FuzzyBest([]string{"crome"}, names))
	assert.Equal(t, -1, FuzzyBest([]string{"zzzz"}, names))
	assert.Equal(t, -1, FuzzyBest([]string{"cv"}, names), "short keywords are ignored")
}

func TestHasSetupKeyword(t *testing.T) {
	keywords := []string{"setup", "install", "installer", "uninstall"}

	assert.True(t, HasSetupKeyword("ChromeSetup.exe", keywords))
	assert.True(t, HasSetupKeyword("unins000 Uninstall.exe", keywords))
	assert.True(t, HasSetupKeyword("install chrome", keywords))
	assert.True(t, HasSetupKeyword("obs.exe", []string{"OBS"}), "keywords compare case-insensitively")
	assert.False(t, HasSetupKeyword("chrome.exe", keywords))
	assert.False(t, HasSetupKeyword("chrome.exe", []string{""}))
	assert.False(t, HasSetupKeyword("setup.exe", nil))
}
