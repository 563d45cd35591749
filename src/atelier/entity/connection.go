// Package entity contains the domain types shared by the atelier-daemon layers.
package entity

import (
	"fmt"
	"strings"
)

const (
	// DefaultPort is the web server port of a default server installation.
	DefaultPort = 52773
	// DefaultNamespace is used when no namespace is configured.
	DefaultNamespace = "USER"
	// DefaultAPIVersion is the lowest Atelier API version, supported by every server.
	DefaultAPIVersion = 1
)

// ConnectionSpec is the effective set of connection parameters resolved for one workspace key.
type ConnectionSpec struct {
	// Key is the workspace folder name or server URI that produced this spec.
	Key        string `yaml:"-" json:"key"`
	Active     bool   `yaml:"active" json:"active"`
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	PathPrefix string `yaml:"pathPrefix" json:"pathPrefix"`
	Namespace  string `yaml:"ns" json:"ns"`
	Username   string `yaml:"username" json:"username"`
	Password   string `yaml:"password" json:"-"`
	HTTPS      bool   `yaml:"https" json:"https"`
	// APIVersion caps the negotiated API version when non-zero.
	APIVersion int `yaml:"apiVersion" json:"apiVersion"`
}

// SessionKey identifies the Session shared by every spec with the same host, port and namespace.
type SessionKey struct {
	Host      string
	Port      int
	Namespace string
}

// String implements fmt.Stringer.
func (k SessionKey) String() string {
	return fmt.Sprintf("%s:%d[%s]", k.Host, k.Port, k.Namespace)
}

// SessionKey returns the key of the Session used by this spec.
func (c ConnectionSpec) SessionKey() SessionKey {
	return SessionKey{
		Host:      strings.ToLower(c.Host),
		Port:      c.Port,
		Namespace: strings.ToUpper(c.Namespace),
	}
}

// Authority returns host:port.
func (c ConnectionSpec) Authority() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL returns the scheme, authority and path prefix of the server, without a trailing slash.
func (c ConnectionSpec) BaseURL() string {
	scheme := "http"
	if c.HTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Authority(), strings.TrimSuffix(normalizePrefix(c.PathPrefix), "/"))
}

func normalizePrefix(prefix string) string {
	if prefix == "" || strings.HasPrefix(prefix, "/") {
		return prefix
	}
	return "/" + prefix
}

// ConnectionState is the long lived state of a connection, as shown by the status indicator.
type ConnectionState string

const (
	// ConnectionStateUnknown indicates that no request has completed yet.
	ConnectionStateUnknown ConnectionState = "UNKNOWN"
	// ConnectionStateConnected indicates that the last request reached the server.
	ConnectionStateConnected ConnectionState = "CONNECTED"
	// ConnectionStateUnauthorized indicates that the server rejected the credentials.
	ConnectionStateUnauthorized ConnectionState = "UNAUTHORIZED"
	// ConnectionStateError indicates that the last request failed to reach the server.
	ConnectionStateError ConnectionState = "ERROR"
	// ConnectionStateDisconnected indicates that the session was torn down.
	ConnectionStateDisconnected ConnectionState = "DISCONNECTED"
)

// ConnectionStatus is a snapshot of the status indicator for one session.
type ConnectionStatus struct {
	Session string          `json:"session"`
	State   ConnectionState `json:"state"`
	// Message is shown as the tooltip of the indicator.
	Message string `json:"message,omitempty"`
}
