package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is the coarse kind of a server document.
type Category string

const (
	// CategoryClass is a class definition.
	CategoryClass Category = "CLS"
	// CategoryRoutine is a routine or include file.
	CategoryRoutine Category = "RTN"
	// CategoryCSP is a file served by a web application.
	CategoryCSP Category = "CSP"
	// CategoryOther is any other document type.
	CategoryOther Category = "OTH"
	// CategoryAll selects every category in a listing.
	CategoryAll Category = "*"
)

// CategoryOf classifies a document name by its extension, or as a web application file when it is a path.
func CategoryOf(name string) Category {
	if strings.HasPrefix(name, "/") {
		return CategoryCSP
	}
	switch Extension(name) {
	case "cls":
		return CategoryClass
	case "mac", "int", "inc":
		return CategoryRoutine
	default:
		return CategoryOther
	}
}

// ParseCategory maps the category field of a server payload.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToUpper(s)); c {
	case CategoryClass, CategoryRoutine, CategoryCSP, CategoryOther, CategoryAll:
		return c
	default:
		return CategoryOther
	}
}

// Extension returns the lower-cased extension of a document name without the dot.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 || strings.ContainsRune(name[i:], '/') {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// IsSystem reports whether a document belongs to a system package.
func IsSystem(name string) bool {
	return strings.HasPrefix(name, "%")
}

// DocumentIdentity is a fully qualified document name, optionally pointing at a symbol inside it.
type DocumentIdentity struct {
	Name string
	// Symbol is the label or member named after the colon, e.g. Method in Name.cls:Method+3.
	Symbol string
	Offset int
}

// ParseDocumentIdentity parses Name, Name:Symbol or Name:Symbol+Offset.
func ParseDocumentIdentity(s string) (DocumentIdentity, error) {
	name, rest, found := strings.Cut(s, ":")
	if name == "" {
		return DocumentIdentity{}, fmt.Errorf("invalid document identity %q", s)
	}
	id := DocumentIdentity{Name: name}
	if !found || rest == "" {
		return id, nil
	}
	symbol, offset, hasOffset := strings.Cut(rest, "+")
	id.Symbol = symbol
	if hasOffset {
		n, err := strconv.Atoi(offset)
		if err != nil {
			return DocumentIdentity{}, fmt.Errorf("invalid offset in document identity %q: %w", s, err)
		}
		id.Offset = n
	}
	return id, nil
}

// Category returns the category of the identified document.
func (d DocumentIdentity) Category() Category {
	return CategoryOf(d.Name)
}

// String implements fmt.Stringer.
func (d DocumentIdentity) String() string {
	switch {
	case d.Symbol == "":
		return d.Name
	case d.Offset == 0:
		return d.Name + ":" + d.Symbol
	default:
		return fmt.Sprintf("%s:%s+%d", d.Name, d.Symbol, d.Offset)
	}
}

// DocumentSnapshot is the content of one document as returned by the server.
type DocumentSnapshot struct {
	Name string `json:"name"`
	// Timestamp is the server's version token for the document.
	Timestamp string   `json:"ts"`
	Content   []string `json:"content"`
	Category  Category `json:"cat"`
	Generated bool     `json:"generated"`
	// Binary is set when Content holds base64 chunks rather than text lines.
	Binary bool `json:"enc"`
}

// Text joins the content lines with \n.
func (d DocumentSnapshot) Text() string {
	return strings.Join(d.Content, "\n")
}

// SplitLines splits buffer text into server lines, normalizing \r\n and \r to \n.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// _timestampLayout is the layout of the ts field returned by the server.
const _timestampLayout = "2006-01-02 15:04:05"

// ParseTimestamp parses a server version token as a UTC time.
func ParseTimestamp(ts string) (time.Time, error) {
	return time.ParseInLocation(_timestampLayout, ts, time.UTC)
}

// DocContent is the payload written by PutDoc.
type DocContent struct {
	Content []string `json:"content"`
	Binary  bool     `json:"enc"`
}

// GetDocOptions modify a document fetch.
type GetDocOptions struct {
	// StorageOnly requests only the generated storage definition of a class.
	StorageOnly bool
}

// DocName is one row of a document listing.
type DocName struct {
	Name      string   `json:"name"`
	Category  Category `json:"cat"`
	Database  string   `json:"db"`
	Generated bool     `json:"gen"`
	Timestamp string   `json:"ts"`
}

// DocNamesQuery filters a document listing.
type DocNamesQuery struct {
	Category  Category
	Generated bool
	// Filter is a server-side name pattern; * matches any run of characters.
	Filter string
}

// DocIndex is the cross reference metadata of one document.
type DocIndex struct {
	Name      string `json:"name"`
	Timestamp string `json:"ts"`
	Generated bool   `json:"gen"`
	// Others lists related documents such as generated routines or subclasses.
	Others     []string `json:"others"`
	Super      []string `json:"super"`
	Methods    []string `json:"methods"`
	Properties []string `json:"properties"`
}

// FileType classifies a virtual filesystem entry.
type FileType int

const (
	// FileTypeFile is a document.
	FileTypeFile FileType = 1
	// FileTypeDirectory is a package or web application folder.
	FileTypeDirectory FileType = 2
)

// FileStat describes a virtual filesystem entry.
type FileStat struct {
	Type  FileType  `json:"type"`
	Size  int       `json:"size"`
	MTime time.Time `json:"mtime"`
	CTime time.Time `json:"ctime"`
}

// DirectoryEntry is one child of a virtual directory.
type DirectoryEntry struct {
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	IsDirectory bool   `json:"isDirectory"`
}
