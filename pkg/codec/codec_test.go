package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regionkit/pkg/types"
)

func TestRoundTrip(t *testing.T) {
	c := Default()
	raw := bytes.Repeat([]byte("minecraft chunk nbt "), 500)

	for _, s := range []types.Scheme{types.SchemeGZip, types.SchemeZlib, types.SchemeUncompressed} {
		t.Run(s.String(), func(t *testing.T) {
			payload, err := c.Compress(s, raw)
			require.NoError(t, err)
			if s != types.SchemeUncompressed {
				assert.Less(t, len(payload), len(raw))
			}
			got, err := c.Decompress(s, payload)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}
}

func TestHeaderBytes(t *testing.T) {
	c := Default()
	gz, err := c.Compress(types.SchemeGZip, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, gz[:2], "gzip magic")

	zl, err := c.Compress(types.SchemeZlib, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, byte(0x78), zl[0], "zlib CMF")
}

func TestUnknownScheme(t *testing.T) {
	c := Default()
	_, err := c.Compress(types.Scheme(9), []byte("x"))
	assert.True(t, errors.Is(err, types.ErrUnknownScheme))
	_, err = c.Decompress(types.Scheme(0), []byte("x"))
	assert.True(t, errors.Is(err, types.ErrUnknownScheme))
}

func TestCorruptPayload(t *testing.T) {
	_, err := Default().Decompress(types.SchemeZlib, []byte{1, 2, 3, 4})
	require.Error(t, err)
}

func TestLimit(t *testing.T) {
	c, err := New(&Options{MaxDecompressed: 100})
	require.NoError(t, err)

	payload, err := c.Compress(types.SchemeGZip, make([]byte, 101))
	require.NoError(t, err)
	_, err = c.Decompress(types.SchemeGZip, payload)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = c.Decompress(types.SchemeUncompressed, make([]byte, 101))
	require.ErrorIs(t, err, ErrTooLarge)

	payload, err = c.Compress(types.SchemeZlib, make([]byte, 100))
	require.NoError(t, err)
	got, err := c.Decompress(types.SchemeZlib, payload)
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestLevelValidation(t *testing.T) {
	_, err := New(&Options{Level: 12})
	require.Error(t, err)

	c, err := New(&Options{Level: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, c.Level())
}
