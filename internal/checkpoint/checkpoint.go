// Package checkpoint persists the roster offset of the next unprocessed
// company so an interrupted run can resume at batch granularity.
package checkpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse decodes a checkpoint payload: a decimal, non-negative integer with
// optional surrounding whitespace. An empty payload is offset 0.
func Parse(data []byte) (int, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint %q: %w", text, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse checkpoint %q: negative offset", text)
	}
	return n, nil
}

// Format encodes an offset the way Parse expects it.
func Format(index int) []byte {
	return []byte(strconv.Itoa(index) + "\n")
}

func validate(index int) error {
	if index < 0 {
		return fmt.Errorf("checkpoint index must be >= 0, got %d", index)
	}
	return nil
}
