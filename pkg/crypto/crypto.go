package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"speechvault/backend/pkg/errors"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters, fixed so a deployment can always re-derive its key
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	keyLenBytes  = 32 // AES-256
	saltMinBytes = 8
)

// Cipher encrypts and decrypts sensitive record fields with AES-256-GCM.
// Ciphertexts are self-contained: nonce || sealed data, base64-encoded.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives an AES-256 key from the passphrase via scrypt and
// returns a ready Cipher. The passphrase comes from the secrets manager,
// never from source.
func NewCipher(passphrase, salt string) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.NewEncryptionError("encryption passphrase is empty")
	}
	if len(salt) < saltMinBytes {
		return nil, errors.NewEncryptionError("encryption salt too short")
	}

	key, err := scrypt.Key([]byte(passphrase), []byte(salt), scryptN, scryptR, scryptP, keyLenBytes)
	if err != nil {
		return nil, errors.NewEncryptionError("key derivation failed").WithCause(err)
	}

	return NewCipherWithKey(key)
}

// NewCipherWithKey builds a Cipher from a raw 32-byte key
func NewCipherWithKey(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewEncryptionError("invalid encryption key").WithCause(err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewEncryptionError("failed to construct GCM").WithCause(err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns a base64 ciphertext string
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.NewEncryptionError("failed to generate nonce").WithCause(err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt is the exact inverse of Encrypt. It fails with an encryption
// error if the ciphertext was not produced by the same key, was truncated,
// or was tampered with.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.NewEncryptionError("ciphertext is not valid base64").WithCause(err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.NewEncryptionError("ciphertext too short")
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.NewEncryptionError("decryption failed").WithCause(err)
	}

	return string(plaintext), nil
}
