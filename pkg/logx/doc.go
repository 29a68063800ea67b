// Package logx wraps zerolog behind a small structured-logging API.
//
// Components take a logx.Logger by value; the zero value is a no-op, so
// tests can pass Logger{} without wiring sinks.
package logx
