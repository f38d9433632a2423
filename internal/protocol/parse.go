package protocol

import (
	"regexp"
	"strings"
)

// ParseDump converts the flat bracketed text emitted by the header
// dump tool into a TagValues. All bracket characters are stripped,
// the remainder is split on whitespace, and consecutive tokens are
// paired as (name, value) in encounter order. A final unpaired token
// is dropped. Empty input yields an empty map, not an error.
//
// Known defect inherited from the dump format: a value containing
// embedded whitespace splits into several tokens and shifts every
// following pair. The tool is expected not to emit such values.
func ParseDump(raw string) *TagValues {
	stripped := strings.NewReplacer("[", "", "]", "").Replace(raw)
	tokens := strings.Fields(stripped)

	tv := NewTagValues()
	for i := 0; i+1 < len(tokens); i += 2 {
		tv.Set(tokens[i], tokens[i+1])
	}
	return tv
}

// bracketedValue matches one bracket-decorated value token.
var bracketedValue = regexp.MustCompile(`\[([^\[\]]*)\]`)

// SearchValue extracts the trailing value token from the dump of a
// single tag. Returns the empty string when the output carries no
// bracketed value, which is how the dump tool reports an absent tag.
func SearchValue(raw string) string {
	matches := bracketedValue.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
