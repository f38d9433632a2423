package protocol

// TagValues is a mapping from tag name to raw string value that
// remembers insertion order. The dump parser fills it in the order
// tags appear in the dump text; enrichment appends derived keys after
// the parsed ones. Once handed to the renderer it is treated as
// read-only.
type TagValues struct {
	names  []string
	values map[string]string
}

// NewTagValues creates an empty TagValues.
func NewTagValues() *TagValues {
	return &TagValues{values: make(map[string]string)}
}

// Get returns the value for a name and whether it is present.
func (tv *TagValues) Get(name string) (string, bool) {
	v, ok := tv.values[name]
	return v, ok
}

// Set stores a value under a name. A duplicate name overwrites the
// value in place and keeps the original position.
func (tv *TagValues) Set(name, value string) {
	if _, ok := tv.values[name]; !ok {
		tv.names = append(tv.names, name)
	}
	tv.values[name] = value
}

// Names returns the names in insertion order.
func (tv *TagValues) Names() []string {
	out := make([]string, len(tv.names))
	copy(out, tv.names)
	return out
}

// Len returns the number of entries.
func (tv *TagValues) Len() int {
	return len(tv.names)
}

// Clone returns an independent copy preserving insertion order.
func (tv *TagValues) Clone() *TagValues {
	out := NewTagValues()
	for _, name := range tv.names {
		out.Set(name, tv.values[name])
	}
	return out
}

// Pairs renders the entries back as "name value name value ..." in
// insertion order. Reparsing this reconstruction yields an equal map
// as long as no value contains embedded whitespace.
func (tv *TagValues) Pairs() string {
	var b []byte
	for i, name := range tv.names {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, name...)
		b = append(b, ' ')
		b = append(b, tv.values[name]...)
	}
	return string(b)
}
