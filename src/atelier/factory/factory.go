// Package factory builds test values.
package factory

import (
	"github.com/gofrs/uuid"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"go.lsp.dev/jsonrpc2"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification is a factory for a JSON-RPC notification, which carries no id.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewNotification(method, params)
	return req
}

// Snapshot returns a DocumentSnapshot of name holding lines.
func Snapshot(name string, lines ...string) *entity.DocumentSnapshot {
	if lines == nil {
		lines = []string{}
	}
	return &entity.DocumentSnapshot{
		Name:      name,
		Timestamp: "2024-01-02 03:04:05.000",
		Content:   lines,
		Category:  entity.CategoryOf(name),
	}
}

// DocNames returns listing rows for names.
func DocNames(names ...string) []entity.DocName {
	rows := make([]entity.DocName, 0, len(names))
	for _, n := range names {
		rows = append(rows, entity.DocName{Name: n, Category: entity.CategoryOf(n), Database: "USER", Timestamp: "2024-01-02 03:04:05.000"})
	}
	return rows
}

// Spec returns an active ConnectionSpec for the local default server.
func Spec(namespace string) entity.ConnectionSpec {
	return entity.ConnectionSpec{
		Active:    true,
		Host:      "localhost",
		Port:      entity.DefaultPort,
		Namespace: namespace,
	}
}
