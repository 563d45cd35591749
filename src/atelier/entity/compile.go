package entity

// CompileError is one diagnostic reported by the compiler.
type CompileError struct {
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// CompileResult is the outcome of a compile request.
type CompileResult struct {
	Errors  []CompileError `json:"errors"`
	Console []string       `json:"console"`
}

// Succeeded reports whether the compile produced no errors. Console output alone, such as warnings, is not a failure.
func (r CompileResult) Succeeded() bool {
	return len(r.Errors) == 0
}

// SyncState is a step of the import, compile and export workflow.
type SyncState int

const (
	SyncStateIdle SyncState = iota
	SyncStateImporting
	SyncStateCompiling
	SyncStateExporting
	SyncStateFailed
)

// String implements fmt.Stringer.
func (s SyncState) String() string {
	switch s {
	case SyncStateIdle:
		return "idle"
	case SyncStateImporting:
		return "importing"
	case SyncStateCompiling:
		return "compiling"
	case SyncStateExporting:
		return "exporting"
	case SyncStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CompileRequest asks for the local buffer of a document to be imported, compiled and exported back.
type CompileRequest struct {
	ConnectionKey string `json:"connection"`
	Name          string `json:"name"`
	Content       string `json:"content"`
	// Flags is the compiler flag string, defaulting to the configured flags when empty.
	Flags string `json:"flags,omitempty"`
	// LocalPath is the local mirror of the document, overwritten with the server content after a successful compile.
	LocalPath string `json:"localPath,omitempty"`
}

// CompileOutcome reports how far a compile request got.
type CompileOutcome struct {
	Name   string        `json:"name"`
	State  SyncState     `json:"state"`
	Result CompileResult `json:"result"`
	// Refreshed lists the related documents whose open views should be reloaded.
	Refreshed []string `json:"refreshed,omitempty"`
	// Content is the authoritative server text after export.
	Content string `json:"content,omitempty"`
}

// ExportRequest asks for a batch export of server documents to a local folder.
type ExportRequest struct {
	ConnectionKey string   `json:"connection"`
	Root          string   `json:"root"`
	Category      Category `json:"category,omitempty"`
	Generated     bool     `json:"generated,omitempty"`
	Filter        string   `json:"filter,omitempty"`
	IncludeSystem bool     `json:"includeSystem,omitempty"`
	// NoStorage strips generated storage definitions from classes, defaulting to the configured value when nil.
	NoStorage *bool `json:"noStorage,omitempty"`
	// AddCategory places each document under a bucket directory for its category, defaulting to the configured value when nil.
	AddCategory *bool `json:"addCategory,omitempty"`
	Concurrency int   `json:"concurrency,omitempty"`
}

// ExportFailure is one document that could not be exported.
type ExportFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ExportSummary aggregates the result of a batch export.
type ExportSummary struct {
	Root     string          `json:"root"`
	Exported []string        `json:"exported"`
	Failed   []ExportFailure `json:"failed"`
	// AddCategory tells whether documents were placed under category directories.
	AddCategory bool `json:"addCategory"`
}
