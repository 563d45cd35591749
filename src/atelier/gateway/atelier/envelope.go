package atelier

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/transport"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
)

// envelope is the {status, console, result} object wrapping every Atelier response.
type envelope struct {
	endpoint string
	raw      []byte

	Status struct {
		Errors  []json.RawMessage `json:"errors"`
		Summary string            `json:"summary"`
	} `json:"status"`
	Console []string        `json:"console"`
	Result  json.RawMessage `json:"result"`
}

func decodeEnvelope(endpoint string, resp *transport.Response) (*envelope, error) {
	if resp.JSON == nil {
		return nil, &errors.ProtocolError{Endpoint: endpoint, Reason: "expected a JSON response"}
	}

	env := &envelope{endpoint: endpoint, raw: resp.JSON}
	if err := json.Unmarshal(resp.JSON, env); err != nil {
		return nil, &errors.ProtocolError{Endpoint: endpoint, Reason: "decoding envelope", Err: err}
	}
	return env, nil
}

// errorTexts returns the text of every entry in status.errors. Entries are either objects with an error field or plain strings.
func (e *envelope) errorTexts() []string {
	return statusErrorTexts(gjson.GetBytes(e.raw, "status.errors"))
}

// requireNoErrors fails with an APIError when a successful response still reports errors.
func (e *envelope) requireNoErrors() error {
	texts := e.errorTexts()
	if len(texts) == 0 {
		return nil
	}
	return &errors.APIError{
		Code:       http.StatusOK,
		Message:    "server reported errors for " + e.endpoint,
		ServerText: strings.Join(texts, "\n"),
	}
}

func (e *envelope) compileErrors() []entity.CompileError {
	result := []entity.CompileError{}
	gjson.GetBytes(e.raw, "status.errors").ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			result = append(result, entity.CompileError{
				Message:  value.Get("error").String(),
				Location: value.Get("location").String(),
			})
		} else if s := value.String(); s != "" {
			result = append(result, entity.CompileError{Message: s})
		}
		return true
	})
	return result
}

// decodeResult unmarshals result, or result[field] when field is set, into target.
func (e *envelope) decodeResult(field string, target interface{}) error {
	data := []byte(e.Result)
	if field != "" {
		value := gjson.GetBytes(e.Result, field)
		if !value.Exists() {
			return &errors.ProtocolError{Endpoint: e.endpoint, Reason: "missing result." + field}
		}
		data = []byte(value.Raw)
	}
	if len(data) == 0 || string(data) == "null" {
		return &errors.ProtocolError{Endpoint: e.endpoint, Reason: "missing result"}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &errors.ProtocolError{Endpoint: e.endpoint, Reason: "decoding result", Err: err}
	}
	return nil
}

// serverText extracts the server's explanation from a structured error body.
func serverText(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	if texts := statusErrorTexts(gjson.GetBytes(body, "status.errors")); len(texts) > 0 {
		return strings.Join(texts, "\n")
	}
	return gjson.GetBytes(body, "status.summary").String()
}

func statusErrorTexts(errs gjson.Result) []string {
	var texts []string
	errs.ForEach(func(_, value gjson.Result) bool {
		text := value.String()
		if value.IsObject() {
			text = value.Get("error").String()
		}
		if text != "" {
			texts = append(texts, text)
		}
		return true
	})
	return texts
}

func joinSegments(segments []string) string {
	return strings.Join(segments, "/")
}

type serverInfoContent struct {
	Version    string            `json:"version"`
	ID         string            `json:"id"`
	API        int               `json:"api"`
	Namespaces []string          `json:"namespaces"`
	Features   []json.RawMessage `json:"features"`
}

// toEntity keeps the names of enabled features. Servers list them either as names or as {name, enabled} objects.
func (s serverInfoContent) toEntity() *entity.ServerInfo {
	info := &entity.ServerInfo{
		Version:    s.Version,
		ID:         s.ID,
		API:        s.API,
		Namespaces: s.Namespaces,
		Features:   []string{},
	}
	for _, raw := range s.Features {
		f := gjson.ParseBytes(raw)
		switch {
		case f.Type == gjson.String:
			info.Features = append(info.Features, f.String())
		case f.IsObject() && f.Get("enabled").Bool():
			info.Features = append(info.Features, f.Get("name").String())
		}
	}
	return info
}

type docResult struct {
	Name      string          `json:"name"`
	Timestamp string          `json:"ts"`
	Category  entity.Category `json:"cat"`
	Binary    bool            `json:"enc"`
	Content   []string        `json:"content"`
}

func (d docResult) toEntity(requested string) *entity.DocumentSnapshot {
	name := d.Name
	if name == "" {
		name = requested
	}
	category := d.Category
	if category == "" {
		category = entity.CategoryOf(name)
	}

	content := make([]string, len(d.Content))
	for i, line := range d.Content {
		content[i] = strings.ReplaceAll(line, "\r", "")
	}

	return &entity.DocumentSnapshot{
		Name:      name,
		Timestamp: d.Timestamp,
		Content:   content,
		Category:  category,
		Binary:    d.Binary,
	}
}

type putDocBody struct {
	Enc     bool     `json:"enc"`
	Content []string `json:"content"`
}

type queryBody struct {
	Query      string        `json:"query"`
	Parameters []interface{} `json:"parameters"`
}

type memberRow struct {
	Name string `json:"name"`
}

type indexRow struct {
	Name      string   `json:"name"`
	Timestamp string   `json:"ts"`
	Generated bool     `json:"gen"`
	Others    []string `json:"others"`
	Content   struct {
		Super      []string    `json:"super"`
		Methods    []memberRow `json:"methods"`
		Properties []memberRow `json:"properties"`
	} `json:"content"`
}

func (r indexRow) toEntity() entity.DocIndex {
	idx := entity.DocIndex{
		Name:       r.Name,
		Timestamp:  r.Timestamp,
		Generated:  r.Generated,
		Others:     r.Others,
		Super:      r.Content.Super,
		Methods:    make([]string, 0, len(r.Content.Methods)),
		Properties: make([]string, 0, len(r.Content.Properties)),
	}
	if idx.Others == nil {
		idx.Others = []string{}
	}
	for _, m := range r.Content.Methods {
		idx.Methods = append(idx.Methods, m.Name)
	}
	for _, p := range r.Content.Properties {
		idx.Properties = append(idx.Properties, p.Name)
	}
	return idx
}
