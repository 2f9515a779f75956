package logsvc

import (
	"log"

	"github.com/trezcool/elimu/core"
)

// StdLogger writes to a standard library logger only; it backs CLIs and tests
// where error reporting has no business running.
type StdLogger struct {
	std *log.Logger
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std}
}

func (l StdLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) { l.print(msg, args) }
func (l StdLogger) Info(msg string, args ...interface{})  { l.print(msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { l.print(msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { l.print(msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.print(msg, args)
	l.std.Fatal(msg)
}
