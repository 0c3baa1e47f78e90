// Package decoder loads a binary and renders it as JSON, DOT, a source file
// list or an assembly listing.
//
// A Decoder is stateful: every query answers for the most recent successful
// Decode. A failed Decode leaves nothing decoded.
package decoder

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPath is returned by Decode for an empty path.
	ErrEmptyPath = errors.New("no file to decode: path is empty")
	// ErrDecode matches every decode failure, including ErrEmptyPath.
	ErrDecode = errors.New("decode failed")
	// ErrNotDecoded is returned by queries before a successful Decode.
	ErrNotDecoded = errors.New("nothing decoded")
)

// Decoder is the capability the commands are written against.
type Decoder interface {
	Decode(path string) error
	JSON() (string, error)
	DOT() (string, error)
	SourceFiles() (string, error)
	Assembly() (string, error)
}

// DecodeError reports why a file could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decoding: %v", e.Err)
	}
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Options tune what Decode keeps and how names are printed.
type Options struct {
	// Functions are glob patterns; when set only matching functions are decoded.
	Functions []string
	// MaxNameLength bounds printed names; longer ones are elided in the middle.
	MaxNameLength int
}
