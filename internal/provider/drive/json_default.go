//go:build !sonic

package drive

import (
	"io"

	"github.com/goccy/go-json"
)

// JSON hooks shared by both API clients. The sonic build swaps these
// for bytedance/sonic on supported platforms.
var (
	marshalJSON   = json.Marshal
	unmarshalJSON = json.Unmarshal
)

func encodeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
