// Package frontmatter implements the flat key:value metadata header codec.
//
// The codec is deliberately a narrow line-based micro-parser: it only
// understands one scalar `key: value` pair per line inside the leading
// --- delimited block. That is the entire persisted-state contract, and
// round-tripping through a full YAML library would reorder and requote
// fields it has no business touching.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var fieldRe = regexp.MustCompile(`^([A-Za-z0-9_-]+):\s*(.*)$`)

// Fields is an ordered set of header fields. Values are int64, float64 or
// string; a nil value marks the field for removal on the next Edit.
type Fields struct {
	keys []string
	vals map[string]any
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{vals: make(map[string]any)}
}

// Get returns the value for key and whether it is present.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (f *Fields) Has(key string) bool {
	_, ok := f.vals[key]
	return ok
}

// Set stores a value, appending the key at the end when it is new.
func (f *Fields) Set(key string, value any) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = value
}

// Delete removes a field.
func (f *Fields) Delete(key string) {
	if _, ok := f.vals[key]; !ok {
		return
	}
	delete(f.vals, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in header order.
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	return len(f.keys)
}

// headerBounds locates the leading header block. It returns the byte
// offset just past the closing delimiter line, or -1 when the document has
// no well-formed header.
func headerBounds(content []byte) int {
	if !bytes.HasPrefix(content, []byte("---")) {
		return -1
	}
	end := bytes.Index(content[3:], []byte("\n---"))
	if end < 0 {
		return -1
	}
	end += 3 // offset of "\n---" in content
	after := bytes.IndexByte(content[end+4:], '\n')
	if after < 0 {
		return len(content)
	}
	return end + 4 + after + 1 // include the newline after the closing ---
}

// parseLines fills a field set from the raw lines between the delimiters.
// Malformed lines are skipped; numeric-looking values are coerced.
func parseLines(raw string) *Fields {
	f := NewFields()
	for _, line := range strings.Split(raw, "\n") {
		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		f.Set(m[1], coerce(m[2]))
	}
	return f
}

func coerce(value string) any {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(value, 64); err == nil {
		return x
	}
	return value
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Parse extracts the header fields from document content. It returns nil
// when the document has no metadata header.
func Parse(content []byte) *Fields {
	end := headerBounds(content)
	if end < 0 {
		return nil
	}
	block := string(content[:end])
	lines := strings.Split(block, "\n")
	lines = lines[1:] // drop opening ---
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "---" {
		lines = lines[:len(lines)-1]
	}
	return parseLines(strings.Join(lines, "\n"))
}

// Edit applies mutator to the document's header fields and re-serializes.
//
// After the mutator runs, fields whose value became nil are stripped, and
// for every declared required pair both keys are removed unless both are
// present — a half-written pair is never left behind. An empty field set
// removes the header block entirely; otherwise the block is rebuilt with
// one key: value line per field, preserving field order. The returned bool
// reports whether the content actually changed.
func Edit(content []byte, mutator func(*Fields), requiredPairs ...[2]string) ([]byte, bool) {
	end := headerBounds(content)

	var fields *Fields
	if end >= 0 {
		fields = Parse(content)
	} else {
		fields = NewFields()
	}

	mutator(fields)

	// Strip fields the mutator nulled out.
	for _, k := range fields.Keys() {
		if v, ok := fields.Get(k); ok && v == nil {
			fields.Delete(k)
		}
	}

	// Paired keys live and die together.
	for _, pair := range requiredPairs {
		if !fields.Has(pair[0]) || !fields.Has(pair[1]) {
			fields.Delete(pair[0])
			fields.Delete(pair[1])
		}
	}

	var out []byte
	if fields.Len() == 0 {
		if end >= 0 {
			out = content[end:]
		} else {
			out = content
		}
	} else {
		var b strings.Builder
		b.WriteString("---\n")
		for _, k := range fields.Keys() {
			v, _ := fields.Get(k)
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(formatValue(v))
			b.WriteByte('\n')
		}
		b.WriteString("---\n")
		if end >= 0 {
			out = append([]byte(b.String()), content[end:]...)
		} else {
			out = append([]byte(b.String()), content...)
		}
	}

	return out, !bytes.Equal(out, content)
}
