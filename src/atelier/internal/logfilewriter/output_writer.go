// Package logfilewriter provides output channels: per-feature log files the editor tails to show compile and export results.
package logfilewriter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/uber/atelier-sync/src/atelier/internal/fs"
	"github.com/uber/atelier-sync/src/atelier/internal/serverinfofile"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	_fmtOutputKey = "output:%s"
	_outputDir    = "atelier-daemon"
)

// Params define the dependencies for SetupOutputWriter.
type Params struct {
	FS             fs.LocalFS
	Lifecycle      fx.Lifecycle
	ServerInfoFile serverinfofile.ServerInfoFile
}

// SetupOutputWriter creates the output channel called name.
// Lines written to it land in a file whose path is published in the server info file, so the editor can show it in an output panel.
func SetupOutputWriter(p Params, name string) (io.Writer, error) {
	logsDirPath := filepath.Join(os.TempDir(), _outputDir)
	if err := p.FS.MkdirAll(logsDirPath); err != nil {
		return nil, err
	}

	logFile, err := p.FS.TempFile(logsDirPath, name+"-*.log")
	if err != nil {
		return nil, err
	}

	if err := p.ServerInfoFile.UpdateField(fmt.Sprintf(_fmtOutputKey, name), logFile.Name()); err != nil {
		logFile.Close()
		return nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)
	channelLogger := zap.New(core).Sugar()

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			channelLogger.Sync()
			logFile.Close()
			return p.FS.Remove(logFile.Name())
		},
	})

	return &loggerWriter{logger: channelLogger}, nil
}

// NewLoggerWriter returns an output channel that writes to the given logger.
func NewLoggerWriter(logger *zap.SugaredLogger) io.Writer {
	return &loggerWriter{logger: logger}
}

type loggerWriter struct {
	logger *zap.SugaredLogger
}

// Write implements the io.Writer interface by logging each non-empty line.
func (o *loggerWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if len(line) > 0 {
			o.logger.Info(line)
		}
	}

	return len(p), nil
}
