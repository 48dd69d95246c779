package logger

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation configures size-based rotation of a log file.
type Rotation struct {
	MaxSize    int  `mapstructure:"maxSize"`
	MaxAge     int  `mapstructure:"maxAge"`
	MaxBackups int  `mapstructure:"maxBackups"`
	LocalTime  bool `mapstructure:"localTime"`
	Compress   bool `mapstructure:"compress"`
}

// OpenOutput maps an output setting to a writer: "stderr" (or empty),
// "stdout", "none"/"null" for nil, anything else is a file path. Files are
// rotated when rotation is non-nil.
func OpenOutput(output string, rotation *Rotation) (io.Writer, error) {
	switch output {
	case "none", "null":
		return nil, nil
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	}

	if rotation != nil {
		return &lumberjack.Logger{
			Filename:   output,
			MaxSize:    rotation.MaxSize,
			MaxAge:     rotation.MaxAge,
			MaxBackups: rotation.MaxBackups,
			LocalTime:  rotation.LocalTime,
			Compress:   rotation.Compress,
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}
