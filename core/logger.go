package core

// Logger is any leveled logger that can forward errors to a persistent sink.
// Implementations may pull a user.User out of args to attach the acting user.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
