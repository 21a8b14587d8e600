// Package logger sets up the process-wide JSON slog logger and carries
// scoped loggers through contexts.
//
// The pipeline attaches an item-scoped logger (carrying item_id) to the
// context of every run, and the API attaches a trace-scoped one to every
// request, so code deep in a call chain logs with the right fields through
// FromContext without threading a logger parameter.
package logger
