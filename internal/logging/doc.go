// Package logging provides structured logging utilities for inboxsort.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Logger construction from level/format settings
//   - PII sanitization (sender anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "vsm.learn")
//	logger.Info("learn batch applied",
//	    logging.Batch(id),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Debug("classified", logging.UserHash(sender), logging.Domain(sender))
//
// # Security Considerations
//
// Email bodies and full sender addresses are never logged. Senders are
// hashed or reduced to their domain.
package logging
