// Where: cli/internal/infra/ui/console.go
// What: Console output helpers for consistent CLI UX.
// Why: Standardize emojis, indentation, and block structure across commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Console provides helper methods for formatted output.
type Console struct {
	Out          io.Writer
	EmojiEnabled bool
}

// NewWithEmoji creates a Console with explicit emoji settings.
func NewWithEmoji(out io.Writer, enabled bool) *Console {
	return &Console{Out: out, EmojiEnabled: enabled}
}

// NewAuto enables emoji only when out is a terminal.
func NewAuto(out io.Writer) *Console {
	return NewWithEmoji(out, IsTerminal(out))
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Header prints a section header with an emoji.
func (c *Console) Header(emoji, title string) {
	fmt.Fprintf(c.Out, "%s%s\n", c.emojiPrefix(emoji), title)
}

// BlockStart separates a block from previous output and prints its header.
func (c *Console) BlockStart(emoji, title string) {
	fmt.Fprintln(c.Out)
	c.Header(emoji, title)
}

func (c *Console) BlockEnd() {
	fmt.Fprintln(c.Out)
}

// Item prints an indented key/value row.
func (c *Console) Item(key string, value any) {
	fmt.Fprintf(c.Out, "   %-24s %v\n", key+":", value)
}

func (c *Console) Success(msg string) {
	c.prefixed("✅", "[ok] ", msg)
}

func (c *Console) Info(msg string) {
	fmt.Fprintln(c.Out, msg)
}

func (c *Console) Warn(msg string) {
	c.prefixed("⚠️", "[warn] ", msg)
}

func (c *Console) Error(msg string) {
	c.prefixed("❌", "[error] ", msg)
}

func (c *Console) prefixed(emoji, fallback, msg string) {
	prefix := c.emojiPrefix(emoji)
	if prefix == "" {
		prefix = fallback
	}
	fmt.Fprintf(c.Out, "%s%s\n", prefix, msg)
}

func (c *Console) emojiPrefix(emoji string) string {
	if !c.EmojiEnabled || strings.TrimSpace(emoji) == "" {
		return ""
	}
	return emoji + " "
}
