package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	got, err := IntToUint32(123)
	require.NoError(t, err)
	assert.Equal(t, uint32(123), got)

	_, err = IntToUint32(-1)
	assert.ErrorIs(t, err, ErrOverflow)

	if math.MaxInt > math.MaxUint32 {
		_, err = IntToUint32(int(uint64(math.MaxUint32) + 1))
		assert.ErrorIs(t, err, ErrOverflow)
	}
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint64ToUint32(t *testing.T) {
	got, err := Uint64ToUint32(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = Uint64ToUint32(math.MaxUint32 + 1)
	assert.ErrorIs(t, err, ErrOverflow)
}
