package types

import (
	"fmt"
	"strings"
)

// Scheme is the one-byte compression tag stored in every payload envelope.
// The numbers align with the on-disk format.
type Scheme uint8

const (
	SchemeGZip         Scheme = 1
	SchemeZlib         Scheme = 2
	SchemeUncompressed Scheme = 3
)

// String implements the Stringer interface for Scheme
func (s Scheme) String() string {
	switch s {
	case SchemeGZip:
		return "gzip"
	case SchemeZlib:
		return "zlib"
	case SchemeUncompressed:
		return "none"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// ParseScheme accepts the names produced by String (and "uncompressed").
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gzip", "gz":
		return SchemeGZip, nil
	case "zlib", "deflate":
		return SchemeZlib, nil
	case "none", "uncompressed", "raw":
		return SchemeUncompressed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}
