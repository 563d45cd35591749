package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"go.lsp.dev/protocol"
)

func TestSearchRegexp(t *testing.T) {
	tests := []struct {
		name    string
		params  entity.SearchParams
		text    string
		matches int
	}{
		{"literal case insensitive", entity.SearchParams{Query: "set x"}, "SET X=1 set x=2", 2},
		{"literal case sensitive", entity.SearchParams{Query: "set x", Case: true}, "SET X=1 set x=2", 1},
		{"literal escapes meta", entity.SearchParams{Query: "a.b"}, "a.b axb", 1},
		{"regex", entity.SearchParams{Query: "a.b", Regex: true}, "a.b axb", 2},
		{"word", entity.SearchParams{Query: "Name", Word: true}, "Name Names", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := SearchRegexp(tt.params)
			require.NoError(t, err)
			assert.Len(t, re.FindAllStringIndex(tt.text, -1), tt.matches)
		})
	}

	_, err := SearchRegexp(entity.SearchParams{Query: "(", Regex: true})
	assert.Error(t, err)
}

func TestFindAllLineMatches(t *testing.T) {
	re, err := SearchRegexp(entity.SearchParams{Query: "x"})
	require.NoError(t, err)

	ranges := FindAllLineMatches(re, 3, "😀 x = x")
	assert.Equal(t, []protocol.Range{
		{Start: protocol.Position{Line: 3, Character: 3}, End: protocol.Position{Line: 3, Character: 4}},
		{Start: protocol.Position{Line: 3, Character: 7}, End: protocol.Position{Line: 3, Character: 8}},
	}, ranges)

	assert.Nil(t, FindAllLineMatches(re, 0, "none"))
	assert.Equal(t, protocol.Range{Start: protocol.Position{Line: 1}, End: protocol.Position{Line: 1, Character: 4}}, LineRange(1, "abcd"))
}
