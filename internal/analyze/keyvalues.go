package analyze

import "strings"

// NoPairsMessage is reported when no line yields a usable key-value pair.
const NoPairsMessage = "No key-value pairs found."

// ExtractKeyValues runs the naive line-based extraction: each line
// containing a colon is split once on the first colon, both sides are
// trimmed, and pairs with an empty side are discarded. This is an explicit
// heuristic, not parsing — no quoting, escaping, or multi-colon handling.
func ExtractKeyValues(text string) string {
	var pairs []string
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, ":") {
			continue
		}
		key, value, _ := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pairs = append(pairs, key+": "+value)
	}
	if len(pairs) == 0 {
		return NoPairsMessage
	}
	return strings.Join(pairs, "\n")
}
