// Package osinfo extracts single fields out of JSON documents on disk, such
// as the webOS release token in /var/run/nyx/os_info.json.
package osinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrFieldNotFound is returned when the requested field cannot be resolved,
// whether the file is unreadable, empty, malformed before the match, or the
// key is absent.
var ErrFieldNotFound = errors.New("field not found")

// StringField reads the file at path and returns the value of the first
// top-level string field named key, in document order. Scanning stops at the
// match, so malformed JSON after the matched field is never seen.
func StringField(path, key string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w: %w", path, err, ErrFieldNotFound)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, ErrFieldNotFound)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", fmt.Errorf("%s: %w", path, ErrFieldNotFound)
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, ErrFieldNotFound)
		}

		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return "", fmt.Errorf("%s: field %q: %w", path, key, ErrFieldNotFound)
		}

		name, ok := tok.(string)
		if !ok {
			return "", fmt.Errorf("%s: %w", path, ErrFieldNotFound)
		}

		if name == key {
			val, err := dec.Token()
			if err != nil {
				return "", fmt.Errorf("%s: %w", path, ErrFieldNotFound)
			}

			str, ok := val.(string)
			if !ok {
				return "", fmt.Errorf("%s: field %q is not a string: %w", path, key, ErrFieldNotFound)
			}

			return str, nil
		}

		if err := skipValue(dec); err != nil {
			return "", fmt.Errorf("%s: %w", path, ErrFieldNotFound)
		}
	}
}

// skipValue consumes one complete JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}

	return nil
}
