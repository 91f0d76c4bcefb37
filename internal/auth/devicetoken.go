package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInvalidDeviceToken = errors.New("invalid device token")

// DeviceMAC computes hex(HMAC-SHA256(secret, deviceID)), the digest half
// of a device token.
func DeviceMAC(secret, deviceID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(deviceID))
	return hex.EncodeToString(mac.Sum(nil))
}

// DeviceToken builds the full wire credential "<deviceID>:<hex digest>".
func DeviceToken(secret, deviceID string) string {
	return deviceID + ":" + DeviceMAC(secret, deviceID)
}

// VerifyDeviceToken parses a "<deviceID>:<hex digest>" credential and
// checks the digest against the deployment secret. The comparison is
// constant-time over the raw digest bytes.
func VerifyDeviceToken(secret, token string) (string, error) {
	deviceID, digest, ok := strings.Cut(token, ":")
	if !ok || deviceID == "" || len(digest) != 64 {
		return "", ErrInvalidDeviceToken
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return "", ErrInvalidDeviceToken
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(deviceID))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", ErrInvalidDeviceToken
	}
	return deviceID, nil
}
