package core

import (
	"fmt"
	"os"
	"path/filepath"

	uber_config "go.uber.org/config"
	"go.uber.org/fx"
)

const (
	_envConfigDir     = "ATELIER_CONFIG_DIR"
	_defaultConfigDir = "src/atelier/config"
	_metaFile         = "meta.yaml"
)

// ConfigModule provides the daemon config.
var ConfigModule = fx.Options(
	fx.Provide(NewConfig),
)

// Config is the merged daemon config.
type Config struct {
	provider uber_config.Provider
	// files are the config files that were merged, lowest precedence first.
	files []string
}

// Get returns the value at path.
func (c Config) Get(path string) uber_config.Value {
	return c.provider.Get(path)
}

// Name is an implementation of config.Provider.
func (c Config) Name() string {
	return "config"
}

// Files returns the config files that were merged, lowest precedence first.
func (c Config) Files() []string {
	return c.files
}

// NewConfig loads the daemon config from the directory named by ATELIER_CONFIG_DIR.
func NewConfig() (uber_config.Provider, error) {
	return newConfigFromDir(getConfigDir())
}

// newConfigFromDir merges the files listed in meta.yaml. Listed files that don't exist, such as an absent local.yaml, are skipped.
func newConfigFromDir(dir string) (uber_config.Provider, error) {
	listed, err := listedFiles(dir)
	if err != nil {
		return nil, err
	}

	var (
		files   []string
		options []uber_config.YAMLOption
	)
	for _, name := range listed {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		files = append(files, p)
		options = append(options, uber_config.File(p))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("none of %v found in %s", listed, dir)
	}

	provider, err := uber_config.NewYAML(append(options, uber_config.Expand(os.LookupEnv))...)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return Config{provider: provider, files: files}, nil
}

func listedFiles(dir string) ([]string, error) {
	meta, err := uber_config.NewYAML(
		uber_config.File(filepath.Join(dir, _metaFile)),
		uber_config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", _metaFile, err)
	}

	var files []string
	if err := meta.Get("files").Populate(&files); err != nil {
		return nil, fmt.Errorf("reading files list from %s: %w", _metaFile, err)
	}
	return files, nil
}

func getConfigDir() string {
	if dir := os.Getenv(_envConfigDir); dir != "" {
		return dir
	}
	return _defaultConfigDir
}
