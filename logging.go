/*
logging.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import "github.com/sirupsen/logrus"

// Logger is the syslog-shaped sink every component in this package writes
// through. It mirrors log/syslog.Writer so a *syslog.Writer satisfies it
// directly; callers who want structured logging instead can wrap
// *logrus.Logger with NewLogrusLogger.
type Logger interface {
	Alert(string) error
	Close() error
	Crit(string) error
	Debug(string) error
	Emerg(string) error
	Err(string) error
	Info(string) error
	Notice(string) error
	Warning(string) error
}

// NopLogger discards everything. It is the zero-value default wherever a
// Logger isn't supplied.
type NopLogger struct{}

func (NopLogger) Alert(string) error   { return nil }
func (NopLogger) Close() error         { return nil }
func (NopLogger) Crit(string) error    { return nil }
func (NopLogger) Debug(string) error   { return nil }
func (NopLogger) Emerg(string) error   { return nil }
func (NopLogger) Err(string) error     { return nil }
func (NopLogger) Info(string) error    { return nil }
func (NopLogger) Notice(string) error  { return nil }
func (NopLogger) Warning(string) error { return nil }

// logrusLogger adapts a *logrus.Logger onto Logger, mapping syslog levels
// onto logrus' closest equivalent.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrusLogger wraps l so it can be passed anywhere a Logger is
// expected. A nil l falls back to logrus.StandardLogger().
func NewLogrusLogger(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusLogger{l: l}
}

func (g *logrusLogger) Alert(s string) error   { g.l.WithField("syslog_level", "alert").Error(s); return nil }
func (g *logrusLogger) Close() error           { return nil }
func (g *logrusLogger) Crit(s string) error    { g.l.WithField("syslog_level", "crit").Error(s); return nil }
func (g *logrusLogger) Debug(s string) error   { g.l.Debug(s); return nil }
func (g *logrusLogger) Emerg(s string) error   { g.l.WithField("syslog_level", "emerg").Error(s); return nil }
func (g *logrusLogger) Err(s string) error     { g.l.Error(s); return nil }
func (g *logrusLogger) Info(s string) error    { g.l.Info(s); return nil }
func (g *logrusLogger) Notice(s string) error  { g.l.WithField("syslog_level", "notice").Info(s); return nil }
func (g *logrusLogger) Warning(s string) error { g.l.Warning(s); return nil }
