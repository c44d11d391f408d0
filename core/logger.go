package core

// Logger logs messages with optional args: errors, maps of extras and the
// authenticated person (auth.Claims).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type discardLogger struct{}

// DiscardLogger drops everything. Used by tests and tools.
var DiscardLogger Logger = discardLogger{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}
