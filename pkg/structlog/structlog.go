// Package structlog declares the object-style logging surface shared by the
// library packages, so they can log without importing zap directly.
package structlog

// Logger logs a message with a single structured field named key.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) InfoObj(string, string, interface{})  {}
func (Nop) DebugObj(string, string, interface{}) {}
func (Nop) WarnObj(string, string, interface{})  {}
func (Nop) ErrorObj(string, string, interface{}) {}

// OrNop returns log, or Nop when log is nil.
func OrNop(log Logger) Logger {
	if log == nil {
		return Nop{}
	}
	return log
}
