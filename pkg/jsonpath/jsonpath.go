// Package jsonpath evaluates simple JSONPath expressions against response
// bodies using gjson.
package jsonpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNotFound is returned when the path selects nothing.
	ErrNotFound = errors.New("path not found")
	// ErrMismatch is returned by Match when the selected value differs.
	ErrMismatch = errors.New("value mismatch")
)

// Extract returns the value at path as a string. JSON null is "null".
func Extract(body []byte, path string) (string, error) {
	if len(body) == 0 {
		return "", errors.New("empty JSON document")
	}
	if path == "" {
		return "", errors.New("empty JSONPath expression")
	}

	result := gjson.GetBytes(body, ToGJSON(path))
	if !result.Exists() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// Match checks that the value at path equals want. An empty want only
// requires the path to exist.
func Match(body []byte, path, want string) error {
	got, err := Extract(body, path)
	if err != nil {
		return err
	}
	if want != "" && got != want {
		return fmt.Errorf("%w at %s: got %q, want %q", ErrMismatch, path, got, want)
	}
	return nil
}

// ToGJSON converts a JSONPath expression such as $.items[0]['name'] to
// gjson syntax (items.0.name). Paths without a leading $ are assumed to be
// gjson already.
func ToGJSON(path string) string {
	if !strings.HasPrefix(path, "$") {
		return path
	}

	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	r := strings.NewReplacer(
		"['", ".", "']", "",
		`["`, ".", `"]`, "",
		"[", ".", "]", "",
	)
	return strings.TrimPrefix(r.Replace(path), ".")
}
