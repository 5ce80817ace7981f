//go:build sonic

package drive

import (
	"io"

	"github.com/bytedance/sonic"
)

// ConfigStd keeps the wire bytes identical to the encoding/json build.
var sonicJSON = sonic.ConfigStd

var (
	marshalJSON   = sonicJSON.Marshal
	unmarshalJSON = sonicJSON.Unmarshal
)

func encodeJSON(w io.Writer, v any) error {
	return sonicJSON.NewEncoder(w).Encode(v)
}

func decodeJSON(r io.Reader, v any) error {
	return sonicJSON.NewDecoder(r).Decode(v)
}
