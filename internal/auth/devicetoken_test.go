package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceMAC(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("s"))
	mac.Write([]byte("abc"))
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, DeviceMAC("s", "abc"))
	assert.Len(t, DeviceMAC("s", "abc"), 64)
}

func TestDeviceTokenRoundTrip(t *testing.T) {
	token := DeviceToken("secret", "device-1")
	require.True(t, strings.HasPrefix(token, "device-1:"))

	deviceID, err := VerifyDeviceToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "device-1", deviceID)
}

func TestVerifyDeviceToken_Rejects(t *testing.T) {
	token := DeviceToken("secret", "device-1")

	testCases := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", token},
		{"missing separator", "secret", "device-1"},
		{"empty device id", "secret", ":" + strings.Repeat("a", 64)},
		{"truncated digest", "secret", "device-1:abcd"},
		{"tampered digest", "secret", "device-1:" + strings.Repeat("0", 64)},
		{"token for another device", "secret", "device-2:" + strings.SplitN(token, ":", 2)[1]},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyDeviceToken(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}
}
