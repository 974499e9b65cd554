// Package keys maps terminal key presses to viewer actions.
package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyNone KeyName = iota
	KeyRewind
	KeyAdvance
	KeyQuit
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"left":   KeyRewind,
	"h":      KeyRewind,
	"right":  KeyAdvance,
	"l":      KeyAdvance,
	"q":      KeyQuit,
	"ctrl+c": KeyQuit,
}

// GlobalkeyBindings is a global, immutable map of KeyName to keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyRewind: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "previous sample"),
	),
	KeyAdvance: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next sample"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Lookup returns the action bound to a key string, or KeyNone.
func Lookup(s string) KeyName {
	return GlobalKeyStringsMap[s]
}

// HelpOrder lists bindings in the order the status line shows them.
var HelpOrder = []KeyName{KeyRewind, KeyAdvance, KeyQuit}
