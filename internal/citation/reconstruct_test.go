package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstruct_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		style Style
	}{
		{"vancouver", vancouverLine, StyleVancouver},
		{"vancouver suffix", "Smith J Jr, van der Berg JA. Effects of caffeine on sleep. 2019.", StyleVancouver},
		{"apa", apaLine, StyleAPAHarvard},
		{"harvard", harvardLine, StyleAPAHarvard},
		{"apa no date", "Lee, K. (n.d.). Sleep in 2010 and beyond. Retrieved online.", StyleAPAHarvard},
		{"mla", mlaLine, StyleMLAChicago},
		{"site export", siteLine, StyleSiteExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := Tokenize(tt.line, tt.style)
			require.NoError(t, err)

			rebuilt := Reconstruct(first)
			second, err := Tokenize(rebuilt, tt.style)
			require.NoError(t, err, "reconstructed: %s", rebuilt)

			assert.True(t, Equivalent(first, second), "reconstructed: %s\nfirst:  %+v\nsecond: %+v", rebuilt, first, second)
		})
	}
}

func TestReconstruct_Vancouver(t *testing.T) {
	got, err := Tokenize(vancouverLine, StyleVancouver)
	require.NoError(t, err)
	assert.Equal(t, vancouverLine, Reconstruct(got))
}

func TestReconstruct_UnknownStyleFallsBackToLine(t *testing.T) {
	tok := Tokenized{ReferenceLine: "raw text", Style: StyleUnknown}
	assert.Equal(t, "raw text", Reconstruct(tok))
}

func TestEquivalent_IgnoresCaseAndWhitespace(t *testing.T) {
	a, err := Tokenize(vancouverLine, StyleVancouver)
	require.NoError(t, err)
	b, err := Tokenize("SMITH J,   DOE A.  effects of x on   y. 2019. pmid: 12345678.", StyleVancouver)
	require.NoError(t, err)

	assert.True(t, Equivalent(a, b))

	b.Year = 2020
	assert.False(t, Equivalent(a, b))
}
