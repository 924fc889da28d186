package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/alquad/internal/platform"
)

type fakeOracle struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeOracle) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestIsSearchRequest(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"search for python tutorials", true},
		{"google machine learning", true},
		{"look up the weather", true},
		{"what is artificial intelligence", true},
		{"tell me about go generics", true},
		{"is it raining?", true},
		{"open chrome", false},
		{"launch google chrome", false},
		{"open my cv", false},
		{"find my documents folder", false},
		{"hi", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSearchRequest(tt.query))
		})
	}
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"search for python tutorials", "python tutorials"},
		{"Google machine learning", "machine learning"},
		{"google search for golang", "golang"},
		{"what is artificial intelligence?", "artificial intelligence"},
		{"web search about rust", "rust"},
		{"search for ", "search for"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractQuery(tt.query))
		})
	}
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/search?q=python+tutorials%3F", SearchURL("python tutorials?"))
}

func TestSearchDetector_PatternSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{reply: `{"is_search_request": false}`}
	d := NewSearchDetector(oracle)

	ok, terms := d.Classify(context.Background(), "search for python tutorials")
	assert.True(t, ok)
	assert.Equal(t, "python tutorials", terms)
	assert.Empty(t, oracle.prompts)
}

func TestSearchDetector_OracleFallback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  bool
	}{
		{name: "yes", reply: "```json\n{\"is_search_request\": true, \"reason\": \"wants news\"}\n```", want: true},
		{name: "no", reply: `{"is_search_request": false, "reason": "local app"}`, want: false},
		{name: "garbage", reply: "maybe?", want: false},
		{name: "missing field", reply: `{"reason": "?"}`, want: false},
		{name: "oracle down", err: errors.New("connection refused"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &fakeOracle{reply: tt.reply, err: tt.err}
			d := NewSearchDetector(oracle)

			ok, terms := d.Classify(context.Background(), "latest football scores")
			assert.Equal(t, tt.want, ok)
			require.Len(t, oracle.prompts, 1)
			assert.Contains(t, oracle.prompts[0], `"latest football scores"`)
			if tt.want {
				assert.Equal(t, "latest football scores", terms)
			} else {
				assert.Empty(t, terms)
			}
		})
	}
}

func TestSearchDetector_NoOracle(t *testing.T) {
	d := NewSearchDetector(nil)
	ok, _ := d.Classify(context.Background(), "open chrome")
	assert.False(t, ok)
}

func TestPartitionRequestDetector(t *testing.T) {
	parts := []platform.Partition{{Root: `C:\`, Letter: "C"}, {Root: `D:\`, Letter: "D"}}
	d := NewPartitionRequestDetector(parts)

	tests := []struct {
		query string
		want  string
	}{
		{"open d", `D:\`},
		{"open D:", `D:\`},
		{"d:", `D:\`},
		{`d:\`, `D:\`},
		{"d:/", `D:\`},
		{"D drive", `D:\`},
		{"open d drive", `D:\`},
		{"c", `C:\`},
		{"open e", ""},
		{"open docs", ""},
		{"open d games", ""},
		{"dad", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := d.Classify(tt.query)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Root)
		})
	}
}
