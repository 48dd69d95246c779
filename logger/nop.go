package logger

var nop Logger = &nopLogger{}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop
}

type nopLogger struct{}

func (l *nopLogger) WithFields(map[string]any) Logger { return l }

func (*nopLogger) Trace(args ...any)                 {}
func (*nopLogger) Tracef(format string, args ...any) {}
func (*nopLogger) Debug(args ...any)                 {}
func (*nopLogger) Debugf(format string, args ...any) {}
func (*nopLogger) Info(args ...any)                  {}
func (*nopLogger) Infof(format string, args ...any)  {}
func (*nopLogger) Warn(args ...any)                  {}
func (*nopLogger) Warnf(format string, args ...any)  {}
func (*nopLogger) Error(args ...any)                 {}
func (*nopLogger) Errorf(format string, args ...any) {}
func (*nopLogger) Fatal(args ...any)                 {}
func (*nopLogger) Fatalf(format string, args ...any) {}

func (*nopLogger) GetLevel() LogLevel                 { return "" }
func (*nopLogger) IsLevelEnabled(level LogLevel) bool { return false }
