// Package logger provides structured logging for lifescope using zerolog.
//
// It supports JSON and console output, level configuration, and loggers
// tagged with a component or a scope.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("di").WithScope(scope.ID(), scope.Name())
//	log.Debug("service registered", logger.Fields("service", key.String()))
package logger
