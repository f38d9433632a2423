package protocol

import (
	"regexp"
	"sort"
	"strings"
)

// Render substitutes every occurrence of every TagValues key in the
// template with its mapped value. The substitution is a single pass
// over one alternation pattern built from all keys, so replacement
// values that happen to contain another key's name are never
// substituted again. Keys are matched longest-first, so a key that is
// a substring of another never shadows it. An empty map leaves the
// template unchanged.
func Render(template string, values *TagValues) string {
	names := values.Names()
	if len(names) == 0 {
		return template
	}

	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	pattern := regexp.MustCompile(strings.Join(quoted, "|"))

	return pattern.ReplaceAllStringFunc(template, func(name string) string {
		v, _ := values.Get(name)
		return v
	})
}
