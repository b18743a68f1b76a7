package format

import (
	"encoding/json"
	"io"
)

// WriteJSON writes strict JSON output for CLI commands.
//
// NOTE: We intentionally keep output strict JSON only. If you need to
// communicate how to fetch more data, use a `meta` object or `_hint` fields.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Envelope wraps command payloads so callers can always key on "data".
type Envelope struct {
	Data any `json:"data"`
}

// WriteData writes the payload wrapped in an Envelope.
func WriteData(w io.Writer, v any, pretty bool) error {
	return WriteJSON(w, Envelope{Data: v}, pretty)
}
