package docsync

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// NormalizationSummary counts the lines the server changed between the imported buffer and the exported document.
type NormalizationSummary struct {
	InsertedLines int
	DeletedLines  int
}

// Changed reports whether the server changed anything.
func (s NormalizationSummary) Changed() bool {
	return s.InsertedLines > 0 || s.DeletedLines > 0
}

// Normalization diffs local against server line by line.
func Normalization(local, server string) NormalizationSummary {
	if local == server {
		return NormalizationSummary{}
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(local, server)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var summary NormalizationSummary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			summary.InsertedLines += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			summary.DeletedLines += countLines(d.Text)
		}
	}
	return summary
}

func countLines(text string) int {
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
