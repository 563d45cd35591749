package mapper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// DidChangeConfigurationParams carry the full connection settings after the user changed them.
type DidChangeConfigurationParams struct {
	Settings entity.ConnectionSettings `json:"settings"`
}

// ConnectionParams name a connection by workspace folder or server URI.
type ConnectionParams struct {
	Connection string `json:"connection"`
}

// URIParams address one virtual file or directory.
type URIParams struct {
	URI uri.URI `json:"uri"`
}

// FileSearchParams search document names under a folder URI.
type FileSearchParams struct {
	URI        uri.URI `json:"uri"`
	Pattern    string  `json:"pattern"`
	MaxResults int     `json:"maxResults,omitempty"`
}

// TextSearchParams search document contents under a folder URI.
type TextSearchParams struct {
	URI uri.URI `json:"uri"`
	entity.SearchParams
}

// ReadFileResult is the content of a virtual file. It is base64 encoded on the wire.
type ReadFileResult struct {
	Content []byte `json:"content"`
}

// ReadDirectoryResult lists a virtual directory.
type ReadDirectoryResult struct {
	Entries []entity.DirectoryEntry `json:"entries"`
}

// FileSearchResult lists matching virtual files.
type FileSearchResult struct {
	URIs []uri.URI `json:"uris"`
}

// TextSearchMatch is one match with the text of its line.
type TextSearchMatch struct {
	Location protocol.Location `json:"location"`
	Preview  string            `json:"preview"`
}

// StatusResult lists connection statuses sorted by session.
type StatusResult struct {
	Statuses []entity.ConnectionStatus `json:"statuses"`
}

// TextSearchResult lists matches in document order.
type TextSearchResult struct {
	Matches []TextSearchMatch `json:"matches"`
}

// RequestToDidChangeConfigurationParams maps the parameters from a jsonrpc2.Request into DidChangeConfigurationParams.
func RequestToDidChangeConfigurationParams(req jsonrpc2.Request) (*DidChangeConfigurationParams, error) {
	params := DidChangeConfigurationParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToConnectionParams maps the parameters from a jsonrpc2.Request into ConnectionParams. Missing params name no connection.
func RequestToConnectionParams(req jsonrpc2.Request) (*ConnectionParams, error) {
	params := ConnectionParams{}
	if len(req.Params()) == 0 {
		return &params, nil
	}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToURIParams maps the parameters from a jsonrpc2.Request into URIParams.
func RequestToURIParams(req jsonrpc2.Request) (*URIParams, error) {
	params := URIParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	if params.URI == "" {
		return nil, wrapErrParse(fmt.Errorf("uri is required"))
	}
	return &params, nil
}

// RequestToFileSearchParams maps the parameters from a jsonrpc2.Request into FileSearchParams.
func RequestToFileSearchParams(req jsonrpc2.Request) (*FileSearchParams, error) {
	params := FileSearchParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToTextSearchParams maps the parameters from a jsonrpc2.Request into TextSearchParams.
func RequestToTextSearchParams(req jsonrpc2.Request) (*TextSearchParams, error) {
	params := TextSearchParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToCompileRequest maps the parameters from a jsonrpc2.Request into an entity.CompileRequest.
func RequestToCompileRequest(req jsonrpc2.Request) (*entity.CompileRequest, error) {
	params := entity.CompileRequest{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToExportRequest maps the parameters from a jsonrpc2.Request into an entity.ExportRequest.
func RequestToExportRequest(req jsonrpc2.Request) (*entity.ExportRequest, error) {
	params := entity.ExportRequest{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// RequestToCancelParams maps the parameters from a jsonrpc2.Request into protocol.CancelParams.
func RequestToCancelParams(req jsonrpc2.Request) (*protocol.CancelParams, error) {
	params := protocol.CancelParams{}
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return nil, wrapErrParse(err)
	}
	return &params, nil
}

// CancelParamsToID maps the id of a $/cancelRequest to the jsonrpc2.ID of the request it cancels.
func CancelParamsToID(params *protocol.CancelParams) (jsonrpc2.ID, error) {
	switch id := params.ID.(type) {
	case float64:
		return jsonrpc2.NewNumberID(int32(id)), nil
	case string:
		return jsonrpc2.NewStringID(id), nil
	default:
		return jsonrpc2.ID{}, wrapErrParse(fmt.Errorf("invalid request id %v", params.ID))
	}
}

// ContextToEditorUUID extracts the editor connection UUID from a context.
func ContextToEditorUUID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(entity.EditorContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoEditorFoundError{}
	}
	return id, nil
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
}
