package main

import (
	"fmt"
	"io"
	"os"

	"github.com/adonese/apikit/httpcodes"
)

// writeCodes prints the status-code table documented for method, or the
// full table when method is empty.
func writeCodes(w io.Writer, method string) error {
	t := httpcodes.All()
	if method != "" {
		t = httpcodes.ForMethod(method)
	}
	if err := httpcodes.WriteJSON(w, t); err != nil {
		return fmt.Errorf("write codes: %w", err)
	}
	return nil
}

func firstExistingPath(paths ...string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
