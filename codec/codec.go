// Package codec encodes frames inside record values.
//
// Record files do not carry the codec name; readers must use the codec the
// file was written with. The built-in codecs all produce plain JSON, so each
// can read what the others wrote.
package codec

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrUnknownCodec is returned by Lookup for names that are not built in.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written record files.
var Default Codec = GoJSON{}

var builtin = map[string]Codec{
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

// Lookup returns the built-in codec called name.
func Lookup(name string) (Codec, error) {
	if c, ok := builtin[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w %q (want %s)", ErrUnknownCodec, name, strings.Join(Names(), " or "))
}

// Names returns the built-in codec names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}
