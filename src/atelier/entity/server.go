package entity

// ServerInfo is the capability description returned by the API root.
type ServerInfo struct {
	Version    string   `json:"version"`
	ID         string   `json:"id"`
	API        int      `json:"api"`
	Namespaces []string `json:"namespaces"`
	Features   []string `json:"features"`
}

// QueryRow is one record returned by a dictionary query, keyed by column name.
type QueryRow map[string]interface{}

// String returns the named column as a string, or "" when it is absent or not a string.
func (r QueryRow) String(column string) string {
	s, _ := r[column].(string)
	return s
}

// SearchParams describe a full-text search across server documents.
type SearchParams struct {
	Query string `json:"query"`
	Regex bool   `json:"regex"`
	Word  bool   `json:"word"`
	Case  bool   `json:"case"`
	// Files is an optional document name pattern restricting the search.
	Files      string `json:"files,omitempty"`
	System     bool   `json:"sys,omitempty"`
	Generated  bool   `json:"gen,omitempty"`
	MaxResults int    `json:"max,omitempty"`
}

// SearchMatch is one match inside a document. Line is relative to Member when Member is set.
type SearchMatch struct {
	Text   string `json:"text"`
	Line   *int   `json:"line,omitempty"`
	Member string `json:"member,omitempty"`
	// Attr names the member keyword, such as Description, that contains the match.
	Attr     string `json:"attr,omitempty"`
	AttrLine *int   `json:"attrline,omitempty"`
}

// SearchResult groups the matches found in one document.
type SearchResult struct {
	Doc     string        `json:"doc"`
	Matches []SearchMatch `json:"matches"`
}
