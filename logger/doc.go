// Package logger provides structured logging built on zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("assembler")
//	log.Info("round complete", logger.Fields(logger.FieldRound, 3, logger.FieldSegments, 41))
package logger
