// Package connection resolves connection settings and hands out the Atelier client for a workspace key.
package connection

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.uber.org/config"
	"gopkg.in/yaml.v3"
)

// Layer is one level of connection settings.
type Layer = entity.SettingsLayer

// Settings is the editor's connection configuration.
type Settings = entity.ConnectionSettings

// Resolve merges the layers that apply to key, lowest precedence first: the global connection, the workspace folder, then the server URI overrides.
// key is a workspace folder name, a server URI, or "" for the global connection.
func Resolve(settings Settings, key string) (entity.ConnectionSpec, error) {
	layers := []Layer{defaultLayer(), settings.Conn}

	switch {
	case key == "":
	case strings.Contains(key, "://"):
		uriLayers, err := uriLayers(settings, key)
		if err != nil {
			return entity.ConnectionSpec{}, err
		}
		layers = append(layers, uriLayers...)
	default:
		folder, ok := settings.Folders[key]
		if !ok {
			return entity.ConnectionSpec{}, &errors.ConfigError{Key: key, Reason: "no workspace folder with this name"}
		}
		layers = append(layers, folder)
	}

	spec, err := merge(layers)
	if err != nil {
		return entity.ConnectionSpec{}, &errors.ConfigError{Key: key, Reason: err.Error()}
	}
	spec.Key = key

	if err := validate(spec); err != nil {
		return entity.ConnectionSpec{}, err
	}
	return spec, nil
}

func defaultLayer() Layer {
	return Layer{
		"active": true,
		"port":   entity.DefaultPort,
		"ns":     entity.DefaultNamespace,
	}
}

// uriLayers returns the layers contributed by a server URI.
// isfs://folder:NS/path?ns=NS uses the named workspace folder; the ns query wins over the authority namespace.
// Other URIs address a server directly and take host, port and scheme from the URI.
func uriLayers(settings Settings, key string) ([]Layer, error) {
	if strings.HasPrefix(key, mapper.SchemeISFS) {
		return isfsLayers(settings, key)
	}

	u, err := url.Parse(key)
	if err != nil {
		return nil, &errors.ConfigError{Key: key, Reason: fmt.Sprintf("invalid server URI: %s", err)}
	}

	direct := Layer{"host": u.Hostname(), "https": u.Scheme == "https"}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, &errors.ConfigError{Key: key, Reason: "invalid port"}
		}
		direct["port"] = p
	}
	if ns := u.Query().Get("ns"); ns != "" {
		direct["ns"] = ns
	}

	layers := []Layer{direct}
	if server, ok := settings.Servers[u.Host]; ok {
		layers = append(layers, server)
	}
	return layers, nil
}

func isfsLayers(settings Settings, key string) ([]Layer, error) {
	u, err := mapper.ParseServerURI(key)
	if err != nil {
		return nil, &errors.ConfigError{Key: key, Reason: err.Error()}
	}

	folder, ok := settings.Folders[u.Folder]
	if !ok {
		return nil, &errors.ConfigError{Key: key, Reason: fmt.Sprintf("no workspace folder named %q", u.Folder)}
	}

	layers := []Layer{folder}
	if server, ok := settings.Servers[u.Authority]; ok {
		layers = append(layers, server)
	}
	if u.Namespace != "" {
		layers = append(layers, Layer{"ns": u.Namespace})
	}
	return layers, nil
}

// merge layers with go.uber.org/config; later layers override earlier ones key by key.
func merge(layers []Layer) (entity.ConnectionSpec, error) {
	opts := []config.YAMLOption{config.Permissive()}
	for _, l := range layers {
		clean := make(Layer, len(l))
		for k, v := range l {
			if v != nil {
				clean[k] = v
			}
		}
		if len(clean) == 0 {
			continue
		}

		data, err := yaml.Marshal(clean)
		if err != nil {
			return entity.ConnectionSpec{}, err
		}
		opts = append(opts, config.Source(bytes.NewReader(data)))
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return entity.ConnectionSpec{}, err
	}

	var spec entity.ConnectionSpec
	if err := provider.Get(config.Root).Populate(&spec); err != nil {
		return entity.ConnectionSpec{}, err
	}
	return spec, nil
}

func validate(spec entity.ConnectionSpec) error {
	switch {
	case spec.Host == "":
		return &errors.ConfigError{Key: spec.Key, Reason: "host is not set"}
	case spec.Port <= 0 || spec.Port > 65535:
		return &errors.ConfigError{Key: spec.Key, Reason: fmt.Sprintf("port %d is out of range", spec.Port)}
	case spec.Namespace == "":
		return &errors.ConfigError{Key: spec.Key, Reason: "namespace is not set"}
	case spec.APIVersion < 0:
		return &errors.ConfigError{Key: spec.Key, Reason: "apiVersion must not be negative"}
	}
	return nil
}

// Resolver resolves keys against the current Settings. Results are never cached, so a settings change is visible to the next call.
type Resolver struct {
	settings atomic.Pointer[Settings]
}

// NewResolver returns a Resolver over the initial settings.
func NewResolver(settings Settings) *Resolver {
	r := &Resolver{}
	r.Update(settings)
	return r
}

// Resolve returns the ConnectionSpec for key.
func (r *Resolver) Resolve(key string) (entity.ConnectionSpec, error) {
	return Resolve(*r.settings.Load(), key)
}

// Update replaces the settings.
func (r *Resolver) Update(settings Settings) {
	r.settings.Store(&settings)
}

// Settings returns the current settings.
func (r *Resolver) Settings() Settings {
	return *r.settings.Load()
}
