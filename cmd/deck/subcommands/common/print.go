package common

import (
	"encoding/json"
	"io"
)

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	buf, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	if _, err := w.Write(append(buf, '\n')); err != nil {
		return err
	}
	return nil
}
