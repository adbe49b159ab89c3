package crypto

import (
	"strings"
	"testing"

	"speechvault/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher("test-passphrase", "test-salt-value")
	require.NoError(t, err)
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	inputs := []string{
		"hello world",
		"a",
		strings.Repeat("long transcription text ", 200),
		"unicode: こんにちは, привет, 😀",
		"data:audio/wav;base64,UklGRiQAAABXQVZF",
	}

	for _, in := range inputs {
		ct, err := c.Encrypt(in)
		require.NoError(t, err)
		assert.NotEqual(t, in, ct)

		out, err := c.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	ct1, err := c.Encrypt("same text")
	require.NoError(t, err)
	ct2, err := c.Encrypt("same text")
	require.NoError(t, err)

	// Fresh nonce per call, so independent encryptions never share ciphertext
	assert.NotEqual(t, ct1, ct2)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	c1 := newTestCipher(t)
	c2, err := NewCipher("another-passphrase", "test-salt-value")
	require.NoError(t, err)

	ct, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(ct)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeEncryptionError))
}

func TestDecryptTamperedCiphertextFails(t *testing.T) {
	c := newTestCipher(t)

	ct, err := c.Encrypt("secret")
	require.NoError(t, err)

	tampered := []byte(ct)
	tampered[len(tampered)/2] ^= 0x01

	_, err = c.Decrypt(string(tampered))
	assert.Error(t, err)
}

func TestDecryptGarbageFails(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt("not base64 at all!!!")
	assert.True(t, errors.HasCode(err, errors.CodeEncryptionError))

	_, err = c.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
	assert.True(t, errors.HasCode(err, errors.CodeEncryptionError))
}

func TestNewCipherRejectsBadInputs(t *testing.T) {
	_, err := NewCipher("", "test-salt-value")
	assert.Error(t, err)

	_, err = NewCipher("passphrase", "short")
	assert.Error(t, err)

	_, err = NewCipherWithKey([]byte("not-32-bytes"))
	assert.Error(t, err)
}
