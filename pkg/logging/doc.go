// Package logging configures the structured logger used across sunsetd.
//
// It wraps log/slog:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("registry loaded", "endpoints", 12)
//
// Components accept a *slog.Logger and fall back to Nop() when given nil.
package logging
