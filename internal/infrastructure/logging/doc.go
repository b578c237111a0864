// Package logging provides structured logging for the bus service.
//
// It wraps log/slog with JSON output for production, text output for
// development, and default service and version fields on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	network.SetLogger(logger.Component("bus"))
//	logger.Info("bus loop started", "interval", cfg.Bus.TickInterval)
//
// Never log secrets, tokens or passwords.
package logging
