package importer

import (
	"encoding/json"
	"strings"
)

// FieldFormat tags which of the two accepted feed encodings a list-valued
// field arrived in.
type FieldFormat int

const (
	FormatJSON FieldFormat = iota
	FormatDelimited
	FormatUnparseable
)

// ParseStringList decodes a field that may arrive either as a legacy
// JSON-encoded array of strings or as a plain comma-separated string.
// The JSON arm is attempted first; a value that looks like JSON but fails to
// decode is Unparseable rather than silently re-split.
func ParseStringList(raw string) ([]string, FieldFormat) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, FormatDelimited
	}

	if strings.HasPrefix(trimmed, "[") {
		var values []string
		if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
			return nil, FormatUnparseable
		}
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out, FormatJSON
	}

	parts := strings.Split(trimmed, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, FormatDelimited
}
