// Package logging provides the collaborator-supplied logging hook used
// throughout nescore. Core packages never write to stdout/stderr
// directly; they hold a Logger and call it instead.
package logging

import "github.com/golang/glog"

// Logger is implemented by anything that can record a diagnostic
// message. The four levels mirror glog's.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// GlogLogger adapts github.com/golang/glog to Logger. glog.V(1) gates
// Debugf so routine per-instruction tracing stays off unless the
// caller raises the verbosity with -v.
type GlogLogger struct{}

func (GlogLogger) Debugf(format string, args ...any) {
	if glog.V(1) {
		glog.Infof(format, args...)
	}
}

func (GlogLogger) Infof(format string, args ...any)    { glog.Infof(format, args...) }
func (GlogLogger) Warningf(format string, args ...any) { glog.Warningf(format, args...) }
func (GlogLogger) Fatalf(format string, args ...any)   { glog.Fatalf(format, args...) }

// NopLogger discards everything. Used by tests and headless tooling
// that don't want glog's flag-based initialization.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)   {}
func (NopLogger) Infof(string, ...any)    {}
func (NopLogger) Warningf(string, ...any) {}
func (NopLogger) Fatalf(string, ...any)   {}
