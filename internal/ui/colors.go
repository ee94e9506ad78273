package ui

import (
	"fmt"

	"github.com/drew/jobreport/internal/model"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[94m" // Bright blue - more readable on dark backgrounds
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Colors wraps text in ANSI codes when enabled
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

func (c *Colors) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return code + s + ColorReset
}

// Red returns red colored text
func (c *Colors) Red(s string) string { return c.wrap(ColorRed, s) }

// Green returns green colored text
func (c *Colors) Green(s string) string { return c.wrap(ColorGreen, s) }

// Yellow returns yellow colored text
func (c *Colors) Yellow(s string) string { return c.wrap(ColorYellow, s) }

// Blue returns blue colored text
func (c *Colors) Blue(s string) string { return c.wrap(ColorBlue, s) }

// Cyan returns cyan colored text
func (c *Colors) Cyan(s string) string { return c.wrap(ColorCyan, s) }

// Gray returns gray colored text
func (c *Colors) Gray(s string) string { return c.wrap(ColorGray, s) }

// Bold returns bold text
func (c *Colors) Bold(s string) string { return c.wrap(ColorBold, s) }

// TypeColor colors a column type name
func (c *Colors) TypeColor(t model.ColumnType) string {
	switch t {
	case model.TypeInteger:
		return c.Blue(string(t))
	case model.TypeFloat:
		return c.Cyan(string(t))
	case model.TypeDatetime:
		return c.Yellow(string(t))
	case model.TypeString:
		return c.Green(string(t))
	default:
		return string(t)
	}
}

// Coverage renders "n/total" green when complete and yellow otherwise
func (c *Colors) Coverage(n, total int) string {
	text := fmt.Sprintf("%d/%d", n, total)
	if n == total {
		return c.Green(text)
	}
	if n == 0 {
		return c.Red(text)
	}
	return c.Yellow(text)
}
