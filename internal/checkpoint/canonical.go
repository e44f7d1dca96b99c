package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON:
//
//  1. Object keys sorted bytewise
//  2. Strings NFC-normalized, no HTML escaping (< > & stay literal)
//  3. Numbers carried as json.Number keep their source form verbatim
//
// Component payloads arrive as json.RawMessage from encoding/json; they are
// re-parsed with UseNumber and re-emitted canonically, so the same world
// state always encodes to the same bytes regardless of map iteration order.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return appendCanonicalString(buf, val)
	case json.Number:
		buf.WriteString(string(val))
		return nil
	case int:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", val)
		return nil
	case json.RawMessage:
		parsed, err := parseRaw(val)
		if err != nil {
			return err
		}
		return appendCanonical(buf, parsed)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		// Structs and everything else: round-trip through encoding/json,
		// then canonicalize the parsed form.
		raw, err := marshalNoEscape(v)
		if err != nil {
			return fmt.Errorf("canonical: %w", err)
		}
		parsed, err := parseRaw(raw)
		if err != nil {
			return err
		}
		return appendCanonical(buf, parsed)
	}
}

// appendCanonicalString writes an NFC-normalized JSON string without HTML
// escaping.
func appendCanonicalString(buf *bytes.Buffer, s string) error {
	raw, err := marshalNoEscape(norm.NFC.String(s))
	if err != nil {
		return fmt.Errorf("canonical string: %w", err)
	}
	buf.Write(raw)
	return nil
}

// parseRaw decodes JSON into the generic any form with numbers preserved as
// json.Number.
func parseRaw(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("canonical: parse %q: %w", raw, err)
	}
	return parsed, nil
}

// marshalNoEscape is json.Marshal without HTML escaping and without the
// encoder's trailing newline.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
