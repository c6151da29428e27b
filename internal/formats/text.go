package formats

import "strings"

// textHandler is the fallback: any content is already corpus text,
// modulo line-ending normalization.
var textHandler = Handler{
	Name: "text",
	Detect: func(path string, data []byte) bool {
		return hasExt(path, ".txt", ".text") || path == ""
	},
	ExtractText: func(data []byte) (string, error) {
		s := strings.ReplaceAll(string(data), "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
		return s, nil
	},
}
