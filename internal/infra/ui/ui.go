// Where: cli/internal/infra/ui/ui.go
// What: High-level user interface used by commands.
// Why: Give commands one output surface that tests can capture.
package ui

import "io"

// KeyValue is a key/value pair rendered inside a block.
type KeyValue struct {
	Key   string
	Value any
}

// UserInterface exposes high-level output helpers used by commands.
type UserInterface interface {
	Info(msg string)
	Warn(msg string)
	Success(msg string)
	Block(emoji, title string, rows []KeyValue)
}

// NewUI returns a UserInterface over out with emoji decided by TTY detection.
func NewUI(out io.Writer) UserInterface {
	return consoleUI{console: NewAuto(out)}
}

// NewPlainUI never prints emoji.
func NewPlainUI(out io.Writer) UserInterface {
	return consoleUI{console: NewWithEmoji(out, false)}
}

type consoleUI struct {
	console *Console
}

func (u consoleUI) Info(msg string)    { u.console.Info(msg) }
func (u consoleUI) Warn(msg string)    { u.console.Warn(msg) }
func (u consoleUI) Success(msg string) { u.console.Success(msg) }

func (u consoleUI) Block(emoji, title string, rows []KeyValue) {
	u.console.BlockStart(emoji, title)
	for _, kv := range rows {
		u.console.Item(kv.Key, kv.Value)
	}
	u.console.BlockEnd()
}
