package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	key := hex.EncodeToString(make([]byte, 32))
	svc, err := New(key)
	require.NoError(t, err)
	require.True(t, svc.Configured())

	enc, err := svc.EncryptString("002010077777777771")
	require.NoError(t, err)
	require.NotEqual(t, []byte("002010077777777771"), enc)

	plain, err := svc.DecryptString(enc)
	require.NoError(t, err)
	require.Equal(t, "002010077777777771", plain)
}

func TestUnconfiguredPassthrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	require.False(t, svc.Configured())

	enc, err := svc.EncryptString("value")
	require.NoError(t, err)
	require.Equal(t, "value", string(enc))
}

func TestRejectsShortKey(t *testing.T) {
	_, err := New("deadbeef")
	require.Error(t, err)
}
