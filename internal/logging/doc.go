// Package logging wraps log/slog with the handlers and helpers the rest of
// the codebase builds on.
//
// It provides console and JSON handlers selected by configuration, attribute
// helper aliases (logging.String, logging.Error, ...), standardized field
// names for asset/stage/correlation context, and component-scoped loggers.
// Stage code should obtain its logger through NewComponentLogger and
// WithContext so every record carries the asset and stage it belongs to.
package logging
