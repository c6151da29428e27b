package exchange

import (
	"encoding/json"

	"github.com/aelfread/wordhoard/core/errors"
)

// legacyVersion is the oldest envelope version still importable.
const legacyVersion = "1.0"

// decode parses envelope data, migrating legacy versions forward.
// migrated reports whether the document was rewritten, in which case
// the recorded checksum no longer covers it.
func decode(data []byte) (env *Envelope, migrated bool, err error) {
	var probe struct {
		FormatVersion string `json:"format_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false, errors.NewParse("json", "envelope", err.Error())
	}

	switch probe.FormatVersion {
	case FormatVersion:
	case legacyVersion:
		data, err = migrateLegacy(data)
		if err != nil {
			return nil, false, err
		}
		migrated = true
	case "":
		return nil, false, errors.NewValidation("format_version", "missing")
	default:
		return nil, false, errors.NewValidation("format_version",
			"unsupported version "+probe.FormatVersion)
	}

	env = &Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, false, errors.NewParse("json", "envelope", err.Error())
	}
	return env, migrated, nil
}

// legacyFieldRenames maps 1.0 field names to their 1.1 replacements.
// The rename applies wherever the field appears in the document tree.
var legacyFieldRenames = map[string]string{
	"text_oe":      "text",
	"text_modern":  "translation",
	"order_index":  "position",
	"note_text_md": "body",
	"note_type":    "kind",
}

// migrateLegacy rewrites a 1.0 envelope into the current shape.
func migrateLegacy(data []byte) ([]byte, error) {
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, errors.NewParse("json", "envelope", err.Error())
	}
	renameFields(tree)
	tree["format_version"] = FormatVersion
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, errors.Wrap(err, "encode migrated envelope")
	}
	return out, nil
}

func renameFields(node any) {
	switch v := node.(type) {
	case map[string]any:
		for old, replacement := range legacyFieldRenames {
			if val, ok := v[old]; ok {
				v[replacement] = val
				delete(v, old)
			}
		}
		for _, child := range v {
			renameFields(child)
		}
	case []any:
		for _, child := range v {
			renameFields(child)
		}
	}
}
