package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ExtractJSON parses data and flattens it into newline-joined "key: value"
// lines. Nested objects flatten recursively, arrays contribute one line per
// element, and scalars render literally (strings unquoted, numbers as
// written in the document). Object key order is preserved so identical input
// always yields identical output.
func ExtractJSON(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	text, err := flattenValue(dec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return "", fmt.Errorf("%w: unexpected data after JSON document", ErrInvalidFormat)
	}

	return text, nil
}

func flattenValue(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	return flattenToken(dec, tok)
}

func flattenToken(dec *json.Decoder, tok json.Token) (string, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var lines []string
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return "", err
				}
				key, ok := keyTok.(string)
				if !ok {
					return "", fmt.Errorf("object key is not a string: %v", keyTok)
				}
				value, err := flattenValue(dec)
				if err != nil {
					return "", err
				}
				lines = append(lines, fmt.Sprintf("%s: %s", key, value))
			}
			if _, err := dec.Token(); err != nil {
				return "", err
			}
			return strings.Join(lines, "\n"), nil
		case '[':
			var lines []string
			for dec.More() {
				value, err := flattenValue(dec)
				if err != nil {
					return "", err
				}
				lines = append(lines, value)
			}
			if _, err := dec.Token(); err != nil {
				return "", err
			}
			return strings.Join(lines, "\n"), nil
		}
		return "", fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case nil:
		return "null", nil
	default:
		return "", fmt.Errorf("unexpected token %v", tok)
	}
}
