// Package logger provides the structured logging interface used across imgbundle.
//
// It wraps zerolog behind a small Logger interface so components take a
// Logger in their constructors and tests can pass NewNopLogger or
// NewTestLogger instead.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("page", pageURL).Info("Scanning page")
//
// Console output goes to stderr so stdout stays free for command output
// such as URL lists. While the interactive panel owns the terminal, use
// NewWithMode(cfg, ModeFileOnly) so that only the log file (if any)
// receives events.
package logger
