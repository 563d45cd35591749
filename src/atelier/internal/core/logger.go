package core

import (
	"fmt"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	_configKeyLogging     = "logging"
	_configKeyServiceName = "service.name"
	_encodingConsole      = "console"
)

// LoggingConfig is the logging block of the daemon config.
type LoggingConfig struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"outputPaths"`
}

// LoggerModule provides the sugared logger and its desugared form.
var LoggerModule = fx.Options(
	fx.Provide(NewSugaredLogger),
	fx.Provide(NewLogger),
)

// NewLogger returns the structured logger behind sugar.
func NewLogger(sugar *zap.SugaredLogger) *zap.Logger {
	return sugar.Desugar()
}

// NewSugaredLogger builds the daemon logger from the logging block. Every entry carries the service name when one is configured.
func NewSugaredLogger(provider config.Provider) (*zap.SugaredLogger, error) {
	var cfg LoggingConfig
	if err := provider.Get(_configKeyLogging).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyLogging, err)
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}
	sink, _, err := zap.Open(outputPaths...)
	if err != nil {
		return nil, fmt.Errorf("opening log outputs: %w", err)
	}

	opts := []zap.Option{zap.ErrorOutput(sink)}
	if cfg.Development {
		opts = append(opts, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if name := provider.Get(_configKeyServiceName).String(); name != "" {
		opts = append(opts, zap.Fields(zap.String("service", name)))
	}

	return zap.New(zapcore.NewCore(newEncoder(cfg), sink, level), opts...).Sugar(), nil
}

func newEncoder(cfg LoggingConfig) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Encoding == _encodingConsole {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}
