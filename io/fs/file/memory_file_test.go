package file

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileWriteRead(t *testing.T) {
	f := NewMemoryFile(nil)
	n, err := f.Write([]byte("PAR1"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(buf[:n]))

	n, err = f.ReadAt(buf[:2], 2)
	require.NoError(t, err)
	assert.Equal(t, "R1", string(buf[:n]))
}

func TestMemoryFileClose(t *testing.T) {
	f := NewMemoryFile(nil)
	_, err := f.Write([]byte{1, 2})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.True(t, f.Closed())

	_, err = f.Write([]byte{3})
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.ErrorIs(t, f.Close(), os.ErrClosed)
	assert.Equal(t, []byte{1, 2}, f.Bytes())
}
