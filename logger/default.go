package logger

var defLogger = NewSlog(InfoLevel, false)

// Debug logs a message at DebugLevel using the package-level default logger.
func Debug(msg string, keysAndValues ...any) {
	defLogger.Debug(msg, keysAndValues...)
}

// Info logs a message at InfoLevel using the package-level default logger.
func Info(msg string, keysAndValues ...any) {
	defLogger.Info(msg, keysAndValues...)
}

// Warn logs a message at WarnLevel using the package-level default logger.
func Warn(msg string, keysAndValues ...any) {
	defLogger.Warn(msg, keysAndValues...)
}

// Error logs a message at ErrorLevel using the package-level default logger.
func Error(msg string, keysAndValues ...any) {
	defLogger.Error(msg, keysAndValues...)
}

// Fatal logs a message at FatalLevel using the package-level default logger,
// then calls os.Exit(1).
func Fatal(msg string, keysAndValues ...any) {
	defLogger.Fatal(msg, keysAndValues...)
}

// SetLevel sets the minimum enabled level for the package-level default logger.
func SetLevel(level Level) {
	defLogger.SetLevel(level)
}

// GetLogger returns the package-level default logger.
func GetLogger() Logger {
	return defLogger
}

// With creates a child of the default logger with additional structured context.
func With(keyValues ...any) Logger {
	return defLogger.With(keyValues...)
}
