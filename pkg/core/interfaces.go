package core

// Logger interface for scene and checker logging
type Logger interface {
	Printf(format string, args ...interface{})
}
