// Package codec compresses and decompresses chunk payloads for the
// compression schemes a region file can tag them with.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/joshuapare/regionkit/pkg/types"
)

// ErrTooLarge indicates a payload that decompresses past the codec's limit.
var ErrTooLarge = errors.New("codec: decompressed payload exceeds limit")

// Codec converts between raw chunk data and the compressed payload stored in
// an envelope. Implementations must be safe for concurrent use.
type Codec interface {
	Compress(s types.Scheme, raw []byte) ([]byte, error)
	Decompress(s types.Scheme, payload []byte) ([]byte, error)
}

// Options tunes the standard codec.
type Options struct {
	// Level is the gzip/zlib compression level, -2 (Huffman only) through 9.
	// Zero means the libraries' default level.
	Level int

	// MaxDecompressed bounds the size of a decompressed payload; zero means
	// no limit.
	MaxDecompressed int64
}

// Standard implements GZip, Zlib and Uncompressed with klauspost/compress.
type Standard struct {
	level int
	limit int64

	gzipPool sync.Pool
	zlibPool sync.Pool
}

var _ Codec = (*Standard)(nil)

// New returns a codec for opts. A nil opts uses default compression and no limit.
func New(opts *Options) (*Standard, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	level := o.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("codec: compression level %d out of range [%d,%d]",
			level, gzip.HuffmanOnly, gzip.BestCompression)
	}

	c := &Standard{level: level, limit: o.MaxDecompressed}
	c.gzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, level)
			return w
		},
	}
	c.zlibPool = sync.Pool{
		New: func() any {
			w, _ := zlib.NewWriterLevel(nil, level)
			return w
		},
	}
	return c, nil
}

var (
	defaultOnce  sync.Once
	defaultCodec *Standard
)

// Default returns a shared codec with default settings.
func Default() *Standard {
	defaultOnce.Do(func() {
		defaultCodec, _ = New(nil)
	})
	return defaultCodec
}

// Level returns the configured compression level.
func (c *Standard) Level() int { return c.level }

// Compress encodes raw with scheme s.
func (c *Standard) Compress(s types.Scheme, raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch s {
	case types.SchemeUncompressed:
		return bytes.Clone(raw), nil
	case types.SchemeGZip:
		w := c.gzipPool.Get().(*gzip.Writer)
		defer c.gzipPool.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
	case types.SchemeZlib:
		w := c.zlibPool.Get().(*zlib.Writer)
		defer c.zlibPool.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownScheme, s)
	}
	return buf.Bytes(), nil
}

// Decompress decodes payload stored with scheme s.
func (c *Standard) Decompress(s types.Scheme, payload []byte) ([]byte, error) {
	var r io.Reader
	switch s {
	case types.SchemeUncompressed:
		if c.limit > 0 && int64(len(payload)) > c.limit {
			return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(payload), c.limit)
		}
		return bytes.Clone(payload), nil
	case types.SchemeGZip:
		gr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gr.Close()
		r = gr
	case types.SchemeZlib:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		defer zr.Close()
		r = zr
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownScheme, s)
	}

	if c.limit > 0 {
		r = io.LimitReader(r, c.limit+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}
	if c.limit > 0 && int64(len(out)) > c.limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.limit)
	}
	return out, nil
}
