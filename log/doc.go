// Package log is the bot's leveled logging surface.
//
// Components take the printf-style Logger interface and fall back to the
// package-level default, a golog-backed logger at info level. Levels parse
// from the same strings the configuration uses ("debug", "info", "warn",
// "error", "off").
//
//	level, _ := log.ParseLevel(cfg.LogLevel)
//	log.SetDefaultLogger(log.NewGologLogger(level))
//
// Noop silences a component, which keeps test output clean.
package log
