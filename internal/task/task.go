// Package task defines the evaluation task record and the line-delimited
// JSON loader that produces it.
//
// A Task keeps every field of its source line as an opaque JSON payload.
// Only id and task_set are lifted into typed fields; everything else is read
// through accessors that fail with ErrFieldMissing or ErrFieldType instead of
// guessing.
package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Well-known field names.
const (
	FieldID                  = "id"
	FieldTaskSet             = "task_set"
	FieldGroundTruth         = "ground_truth"
	FieldSources             = "sources"
	FieldAuthoritativeSource = "authoritative_source"
	FieldFilings             = "filings"
	FieldConstraints         = "constraints"
)

var (
	// ErrFieldMissing is returned by accessors when the record has no such field.
	ErrFieldMissing = errors.New("field missing")
	// ErrFieldType is returned by accessors when the field has an unexpected JSON shape.
	ErrFieldType = errors.New("field has unexpected type")
)

// Task is one evaluation record. The zero value is an empty record whose
// category is CategoryOther.
type Task struct {
	ID      string
	TaskSet string
	// Line is the 1-based source line, or 0 when the task was not loaded from a file.
	Line int

	fields map[string]json.RawMessage
}

// Source is one entry of a task's "sources" list.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// New builds a task from a decoded JSON object. id and task_set must be JSON
// strings when present.
func New(fields map[string]json.RawMessage) (Task, error) {
	t := Task{fields: make(map[string]json.RawMessage, len(fields))}
	for k, v := range fields {
		t.fields[k] = cloneRaw(v)
	}

	var err error
	if t.ID, err = t.optionalString(FieldID); err != nil {
		return Task{}, err
	}
	if t.TaskSet, err = t.optionalString(FieldTaskSet); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Category returns the closed category derived from task_set.
func (t Task) Category() Category {
	return ParseCategory(t.TaskSet)
}

// Has reports whether the record carries the named field (even if null).
func (t Task) Has(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// Keys returns the record's field names in sorted order.
func (t Task) Keys() []string {
	keys := make([]string, 0, len(t.fields))
	for k := range t.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field returns a copy of the raw JSON value of the named field.
func (t Task) Field(name string) (json.RawMessage, error) {
	raw, ok := t.fields[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrFieldMissing)
	}
	return cloneRaw(raw), nil
}

// StringField decodes the named field as a JSON string.
func (t Task) StringField(name string) (string, error) {
	raw, err := t.Field(name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrFieldType)
	}
	return s, nil
}

// GroundTruth returns the raw ground_truth value. Its shape depends on the
// task's category.
func (t Task) GroundTruth() (json.RawMessage, error) {
	return t.Field(FieldGroundTruth)
}

// AuthoritativeSource returns the title of the source a fact-verification
// answer is expected to rely on.
func (t Task) AuthoritativeSource() (string, error) {
	return t.StringField(FieldAuthoritativeSource)
}

// Sources returns the candidate sources of a fact-verification task.
func (t Task) Sources() ([]Source, error) {
	raw, err := t.Field(FieldSources)
	if err != nil {
		return nil, err
	}
	var sources []Source
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, fmt.Errorf("%s: %w", FieldSources, ErrFieldType)
	}
	return sources, nil
}

// MarshalJSON re-emits the record with every original field.
func (t Task) MarshalJSON() ([]byte, error) {
	if t.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.fields)
}

func (t Task) optionalString(name string) (string, error) {
	if !t.Has(name) {
		return "", nil
	}
	s, err := t.StringField(name)
	if err != nil {
		return "", err
	}
	return s, nil
}

// Text renders a JSON value the way it would read in prose: strings are
// unquoted, every other value (null included) is its compact JSON text.
func Text(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return CompactJSON(raw)
}

// CompactJSON returns the canonical compact text of raw. Object key order is
// kept as it appears in the input; strings and numbers are re-encoded so that
// equal values render identically ("a\/b" becomes "a/b", 1.0 becomes 1).
// Input that is not valid JSON is returned compacted as far as possible.
func CompactJSON(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writeCanonical(&buf, dec); err == nil {
		if _, err := dec.Token(); err == io.EOF {
			return buf.String()
		}
	}

	buf.Reset()
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func writeCanonical(buf *bytes.Buffer, dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		open, end := byte(v), byte('}')
		if v == '[' {
			end = ']'
		}
		buf.WriteByte(open)
		for first := true; dec.More(); first = false {
			if !first {
				buf.WriteByte(',')
			}
			if open == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				if err := writeString(buf, key.(string)); err != nil {
					return err
				}
				buf.WriteByte(':')
			}
			if err := writeCanonical(buf, dec); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(end)
	case string:
		return writeString(buf, v)
	case json.Number:
		buf.WriteString(canonicalNumber(v))
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// canonicalNumber renders n the way JavaScript prints numbers. Integer
// literals are kept verbatim so large ids lose no precision.
func canonicalNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if s == "-0" {
			return "0"
		}
		return s
	}

	f, err := n.Float64()
	if err != nil {
		return s
	}
	abs := math.Abs(f)
	switch {
	case f == 0:
		return "0"
	case abs < 1e-6 || abs >= 1e21:
		out := strconv.FormatFloat(f, 'e', -1, 64)
		out = strings.Replace(out, "e-0", "e-", 1)
		return strings.Replace(out, "e+0", "e+", 1)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
