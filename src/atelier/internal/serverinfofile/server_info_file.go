package serverinfofile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKeyInfoFile = "serverInfoFilePath"

// Module is the Fx module for this package.
var Module = fx.Provide(New)

//go:generate mockgen -source=server_info_file.go -destination=serverinfofilemock/server_info_file_mock.go -package=serverinfofilemock

// ServerInfoFile manages a JSON file through which the editor extension discovers the daemon.
// It holds the JSON-RPC address and the paths of the output channel files.
type ServerInfoFile interface {
	UpdateField(key string, value string) error
}

type module struct {
	infofile     string
	logger       *zap.SugaredLogger
	fileContents map[string]string
	mu           sync.Mutex
}

// Params define values to be used by ServerInfoFile.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

// New creates a new ServerInfoFile which is removed again when the daemon stops.
func New(p Params) (ServerInfoFile, error) {
	m := module{
		logger:       p.Logger,
		fileContents: make(map[string]string),
	}

	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: m.OnStop,
	})

	return &m, nil
}

func (m *module) OnStop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.infofile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// UpdateField sets one key and rewrites the file. Readers never observe a partially written file.
func (m *module) UpdateField(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fileContents[key] = value
	jsonOutput, err := json.Marshal(m.fileContents)
	if err != nil {
		return fmt.Errorf("marshalling json: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.infofile), ".server-info-*")
	if err != nil {
		return fmt.Errorf("creating info file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jsonOutput); err != nil {
		tmp.Close()
		return fmt.Errorf("writing info file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing info file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.infofile); err != nil {
		return fmt.Errorf("replacing info file: %w", err)
	}

	m.logger.Infow("server info saved", zap.String("file", m.infofile), zap.String(key, value))
	return nil
}

func (m *module) processConfig(cfg config.Provider) error {
	if err := cfg.Get(_configKeyInfoFile).Populate(&m.infofile); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyInfoFile, err)
	}

	if m.infofile == "" {
		return fmt.Errorf("missing field %q in config", _configKeyInfoFile)
	}

	return nil
}
