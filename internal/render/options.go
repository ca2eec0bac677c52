// Package render provides markdown rendering and color themes for terminal output.
package render

import (
	"os"

	"github.com/diogo/qsemantic/internal/config"
)

// Options configures the markdown renderer behavior.
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Style is a glamour standard style ("dark", "light", "dracula", ...)
	// or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// OptionsFromConfig builds options from the markdown section of the user
// configuration. GLAMOUR_STYLE overrides the configured style.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	opts := DefaultOptions()
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}
	if width > 0 {
		opts.Width = width
	}
	return opts
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}
