package mapper

import (
	"regexp"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"go.lsp.dev/protocol"
)

// SearchRegexp compiles the expression a text search matches with, honouring the regex, word and case options.
func SearchRegexp(params entity.SearchParams) (*regexp.Regexp, error) {
	expr := params.Query
	if !params.Regex {
		expr = regexp.QuoteMeta(expr)
	}
	if params.Word {
		expr = `\b(?:` + expr + `)\b`
	}
	if !params.Case {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// FindAllLineMatches returns the range of every match of re in text, which is line number line of its document.
// Characters are counted in UTF-16 code units.
func FindAllLineMatches(re *regexp.Regexp, line uint32, text string) []protocol.Range {
	indexes := re.FindAllStringIndex(text, -1)
	if indexes == nil {
		return nil
	}

	ranges := make([]protocol.Range, 0, len(indexes))
	for _, idx := range indexes {
		if idx[0] == idx[1] {
			continue
		}
		ranges = append(ranges, protocol.Range{
			Start: protocol.Position{Line: line, Character: utf16Len(text[:idx[0]])},
			End:   protocol.Position{Line: line, Character: utf16Len(text[:idx[1]])},
		})
	}
	return ranges
}

// LineRange returns the range spanning all of text on line.
func LineRange(line uint32, text string) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line},
		End:   protocol.Position{Line: line, Character: utf16Len(text)},
	}
}

func utf16Len(s string) uint32 {
	var n uint32
	for _, r := range s {
		n++
		if r >= 0x10000 {
			n++
		}
	}
	return n
}
