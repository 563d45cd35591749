package vfs

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// _classMemberKeywords start the declaration of a class member.
const _classMemberKeywords = "ClassMethod|Method|Property|Parameter|Query|Index|Trigger|XData|Storage|Projection|ForeignKey|Relationship"

var _globClass = regexp.MustCompile(`\[[^\]]*\]`)

// serverFilter maps a glob to the document name filter of the server, which only knows *.
func serverFilter(pattern string) string {
	f := _globClass.ReplaceAllString(pattern, "*")
	f = strings.ReplaceAll(f, "?", "*")
	for strings.Contains(f, "**") {
		f = strings.ReplaceAll(f, "**", "*")
	}
	if !strings.HasPrefix(f, "*") {
		f = "*" + f
	}
	if !strings.HasSuffix(f, "*") {
		f += "*"
	}
	return f
}

// inFolder reports whether a document belongs below the folder of su.
func inFolder(su mapper.ServerURI, name string) bool {
	if su.CSP() != strings.HasPrefix(name, "/") {
		return false
	}
	return strings.HasPrefix(name, su.DirectoryPrefix())
}

func documentURI(su mapper.ServerURI, name string) uri.URI {
	return su.WithPath(mapper.DocumentNameToPath(name, su.CSP())).URI()
}

func (c *controller) FileSearch(ctx context.Context, folder uri.URI, pattern string, maxResults int) ([]uri.URI, error) {
	su, client, err := c.resolve(ctx, folder)
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	category := entity.CategoryAll
	if su.CSP() {
		category = entity.CategoryCSP
	}
	names, err := client.GetDocNames(ctx, entity.DocNamesQuery{Category: category, Filter: serverFilter(pattern)})
	if err != nil {
		return nil, err
	}

	uris := []uri.URI{}
	for _, doc := range names {
		if !inFolder(su, doc.Name) {
			continue
		}
		p := mapper.DocumentNameToPath(doc.Name, su.CSP())
		full, _ := path.Match(pattern, doc.Name)
		base, _ := path.Match(pattern, path.Base(p))
		if !full && !base {
			continue
		}
		uris = append(uris, documentURI(su, doc.Name))
		if maxResults > 0 && len(uris) == maxResults {
			break
		}
	}
	return uris, nil
}

func (c *controller) TextSearch(ctx context.Context, folder uri.URI, params entity.SearchParams) ([]mapper.TextSearchMatch, error) {
	su, client, err := c.resolve(ctx, folder)
	if err != nil {
		return nil, err
	}
	re, err := mapper.SearchRegexp(params)
	if err != nil {
		return nil, fmt.Errorf("invalid search query %q: %w", params.Query, err)
	}

	results, err := client.ActionSearch(ctx, params)
	if err != nil {
		return nil, err
	}

	matches := []mapper.TextSearchMatch{}
	for _, result := range results {
		if !inFolder(su, result.Doc) {
			continue
		}
		docMatches, err := c.resolveMatches(ctx, client, su, re, result)
		if err != nil {
			return nil, err
		}
		for _, m := range docMatches {
			matches = append(matches, m)
			if params.MaxResults > 0 && len(matches) == params.MaxResults {
				return matches, nil
			}
		}
	}
	return matches, nil
}

// resolveMatches turns the matches of one document into locations. Matches inside a member carry a line relative to the
// member, so the document is fetched once to find the member declarations.
func (c *controller) resolveMatches(ctx context.Context, client atelier.Client, su mapper.ServerURI, re *regexp.Regexp, result entity.SearchResult) ([]mapper.TextSearchMatch, error) {
	var lines []string
	for _, m := range result.Matches {
		if m.Member != "" {
			doc, err := client.GetDoc(ctx, result.Doc, entity.GetDocOptions{})
			if err != nil {
				return nil, err
			}
			lines = doc.Content
			break
		}
	}

	docURI := documentURI(su, result.Doc)
	matches := make([]mapper.TextSearchMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		line, ok := absoluteLine(result.Doc, lines, m)
		if !ok {
			c.logger.Debugw("dropping search match without a resolvable line", "doc", result.Doc, "member", m.Member)
			continue
		}

		text := m.Text
		if line < len(lines) {
			text = lines[line]
		}
		ranges := mapper.FindAllLineMatches(re, uint32(line), text)
		if len(ranges) == 0 {
			ranges = []protocol.Range{mapper.LineRange(uint32(line), text)}
		}
		for _, r := range ranges {
			matches = append(matches, mapper.TextSearchMatch{
				Location: protocol.Location{URI: docURI, Range: r},
				Preview:  text,
			})
		}
	}
	return matches, nil
}

// absoluteLine returns the zero based line of a match. Lines of matches without a member count from 1 at the top of
// the document, lines of matches inside a member count from its declaration.
func absoluteLine(docName string, lines []string, m entity.SearchMatch) (int, bool) {
	if m.Member == "" {
		if m.Line == nil || *m.Line < 1 {
			return 0, false
		}
		return *m.Line - 1, true
	}

	decl, ok := memberLine(docName, lines, m.Member)
	if !ok {
		return 0, false
	}
	switch {
	case m.Line != nil:
		return decl + *m.Line, true
	case m.AttrLine != nil:
		return decl + *m.AttrLine, true
	default:
		return decl, true
	}
}

// memberLine finds the declaration of a class member, or of a label in a routine.
func memberLine(docName string, lines []string, member string) (int, bool) {
	var decl *regexp.Regexp
	if entity.CategoryOf(docName) == entity.CategoryClass {
		decl = regexp.MustCompile(`(?i)^(?:` + _classMemberKeywords + `)\s+` + regexp.QuoteMeta(member) + `(?:[\s(\[;]|$)`)
	} else {
		decl = regexp.MustCompile(`^` + regexp.QuoteMeta(member) + `(?:[\s(]|$)`)
	}
	for i, l := range lines {
		if decl.MatchString(l) {
			return i, true
		}
	}
	return 0, false
}
