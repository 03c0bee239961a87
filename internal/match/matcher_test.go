package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatchType(t *testing.T) {
	tests := []struct {
		input   string
		want    MatchType
		wantErr bool
	}{
		{"", MatchTypeContains, false},
		{"contains", MatchTypeContains, false},
		{" Exact ", MatchTypeExact, false},
		{"PREFIX", MatchTypePrefix, false},
		{"fuzzy", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMatchType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_RejectsEmptyPatterns(t *testing.T) {
	_, err := New([]string{"GRO", ""}, nil, MatchTypeContains)
	assert.Error(t, err)

	_, err = New([]string{"GRO"}, []string{""}, MatchTypeContains)
	assert.Error(t, err)

	_, err = New(nil, nil, "regex")
	assert.Error(t, err)
}

func TestMatcher_Match(t *testing.T) {
	m, err := New([]string{"GRO", "NETFLIX", "STORE"}, []string{"TRANSFER"}, MatchTypeContains)
	require.NoError(t, err)

	tests := []struct {
		name        string
		description string
		want        Result
	}{
		{"substring match", "GRO STORE #1", Result{Kind: Matched, Key: "GRO"}},
		{"case insensitive", "netflix.com 866", Result{Kind: Matched, Key: "NETFLIX"}},
		{"first key in order wins", "BIG STORE GROCERIES", Result{Kind: Matched, Key: "GRO"}},
		{"ignore wins over key", "TRANSFER TO GRO SAVINGS", Result{Kind: Ignored, Key: "TRANSFER"}},
		{"ignore case insensitive", "internal transfer", Result{Kind: Ignored, Key: "TRANSFER"}},
		{"unmatched keeps case", "Random Corner Shop", Result{Kind: Unmatched, Key: "Random Corner Shop"}},
		{"no whitespace normalization", "NET FLIX", Result{Kind: Unmatched, Key: "NET FLIX"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.description))
		})
	}
}

func TestMatcher_Strategies(t *testing.T) {
	tests := []struct {
		matchType   MatchType
		description string
		wantKind    Kind
	}{
		{MatchTypeExact, "gro", Matched},
		{MatchTypeExact, "GRO STORE", Unmatched},
		{MatchTypePrefix, "gro store", Matched},
		{MatchTypePrefix, "THE GRO STORE", Unmatched},
		{MatchTypeContains, "THE GRO STORE", Matched},
	}

	for _, tt := range tests {
		t.Run(string(tt.matchType)+"/"+tt.description, func(t *testing.T) {
			m, err := New([]string{"GRO"}, nil, tt.matchType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, m.Match(tt.description).Kind)
		})
	}
}

func TestMatcher_Find(t *testing.T) {
	m, err := New([]string{"GRO", "RENT"}, []string{"GRO"}, MatchTypeContains)
	require.NoError(t, err)

	key, ok := m.Find("gro")
	assert.True(t, ok, "Find ignores the ignore list")
	assert.Equal(t, "GRO", key)

	_, ok = m.Find("Random Corner Shop")
	assert.False(t, ok)
}

func TestMatch_OneShot(t *testing.T) {
	result, err := Match("INTERNAL TRANSFER", []string{"INTERNAL"}, []string{"TRANSFER"})
	require.NoError(t, err)
	assert.Equal(t, Ignored, result.Kind)
	assert.Equal(t, "ignored", result.Kind.String())

	result, err = Match("RANDOM CORNER SHOP", []string{"GRO"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Kind: Unmatched, Key: "RANDOM CORNER SHOP"}, result)
	assert.Equal(t, "unmatched", result.Kind.String())
	assert.Equal(t, "matched", Matched.String())
}
