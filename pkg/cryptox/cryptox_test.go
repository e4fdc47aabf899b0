package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipher, err := NewCipher("correct horse battery staple")
	require.NoError(t, err)

	plaintext := []byte(`{"url":"https://example.com/hook","token":"secret"}`)

	encrypted, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := cipher.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	cipher, err := NewCipher("passphrase")
	require.NoError(t, err)

	a, err := cipher.Encrypt([]byte("same input"))
	require.NoError(t, err)
	b, err := cipher.Encrypt([]byte("same input"))
	require.NoError(t, err)

	// Random nonces make identical plaintexts encrypt differently.
	assert.NotEqual(t, a, b)
}

func TestDecryptWithWrongPassphrase(t *testing.T) {
	cipher, err := NewCipher("passphrase")
	require.NoError(t, err)
	other, err := NewCipher("different")
	require.NoError(t, err)

	encrypted, err := cipher.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = other.Decrypt(encrypted)
	assert.Error(t, err)
}

func TestDecryptRejectsTruncatedInput(t *testing.T) {
	cipher, err := NewCipher("passphrase")
	require.NoError(t, err)

	_, err = cipher.Decrypt([]byte("short"))
	assert.Error(t, err)
}

func TestNewCipherRejectsEmptyPassphrase(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}
