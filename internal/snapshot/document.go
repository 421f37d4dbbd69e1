// Package snapshot persists raw forecast payloads as timestamped JSON files
// and loads the most recent one back.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Document is an opaque JSON payload. It is kept as raw bytes so the
// upstream key order survives a save/load cycle.
type Document []byte

var errEmptyDocument = errors.New("empty document")

// Valid reports whether d holds exactly one well-formed JSON value.
func (d Document) Valid() bool {
	return len(bytes.TrimSpace(d)) > 0 && json.Valid(d)
}

// Pretty re-indents d with two spaces. Non-ASCII and HTML characters are
// written literally and key order is preserved.
func (d Document) Pretty() ([]byte, error) {
	if len(bytes.TrimSpace(d)) == 0 {
		return nil, errEmptyDocument
	}
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()

	var buf bytes.Buffer
	if err := writeValue(dec, &buf, 0); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Leaves calls fn for every scalar value in document order, depth first.
// Object keys are not visited. fn receives string, json.Number, bool or nil.
func (d Document) Leaves(fn func(v any)) error {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()

	inObject := []bool{false}
	expectKey := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{':
				inObject = append(inObject, true)
				expectKey = true
			case '[':
				inObject = append(inObject, false)
				expectKey = false
			case '}', ']':
				inObject = inObject[:len(inObject)-1]
				expectKey = inObject[len(inObject)-1]
			}
			continue
		}

		if expectKey {
			expectKey = false
			continue
		}
		fn(tok)
		expectKey = inObject[len(inObject)-1]
	}
}

func writeValue(dec *json.Decoder, buf *bytes.Buffer, depth int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := tok.(type) {
	case json.Delim:
		opening, closing := byte('{'), byte('}')
		if v == '[' {
			opening, closing = '[', ']'
		}
		buf.WriteByte(opening)
		n := 0
		for dec.More() {
			if n > 0 {
				buf.WriteByte(',')
			}
			newline(buf, depth+1)
			if opening == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				if err := writeString(buf, key.(string)); err != nil {
					return err
				}
				buf.WriteString(": ")
			}
			if err := writeValue(dec, buf, depth+1); err != nil {
				return err
			}
			n++
		}
		// closing delimiter
		if _, err := dec.Token(); err != nil {
			return err
		}
		if n > 0 {
			newline(buf, depth)
		}
		buf.WriteByte(closing)
	case string:
		return writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
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

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("  ", depth))
}
