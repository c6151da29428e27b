// Package formats turns source files into plain corpus text ready for
// sentence splitting. Each format registers a Handler; Extract picks
// the first handler whose Detect accepts the input, with plain text as
// the fallback.
package formats

import (
	"path/filepath"
	"strings"
)

// Handler converts one input format to corpus text. Detect inspects
// the filename and raw content; ExtractText produces plain text with
// blank-line paragraph breaks.
type Handler struct {
	Name        string
	Detect      func(path string, data []byte) bool
	ExtractText func(data []byte) (string, error)
}

var handlers = []Handler{teiHandler, textHandler}

// Handlers returns the registered handlers in detection order.
func Handlers() []Handler {
	return handlers
}

// Lookup returns the handler with the given name.
func Lookup(name string) (Handler, bool) {
	for _, h := range handlers {
		if h.Name == name {
			return h, true
		}
	}
	return Handler{}, false
}

// Extract detects the format of data and extracts its text. The text
// handler accepts anything, so Extract always resolves a handler.
func Extract(path string, data []byte) (text, format string, err error) {
	for _, h := range handlers {
		if h.Detect(path, data) {
			text, err = h.ExtractText(data)
			return text, h.Name, err
		}
	}
	text, err = textHandler.ExtractText(data)
	return text, textHandler.Name, err
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
