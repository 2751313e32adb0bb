package zkgroup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIDEncryption(t *testing.T) {
	p := mustParams(t)
	uid := uuid.New()

	ct := p.EncryptUID(uid)
	assert.Len(t, ct, UIDCiphertextLen)
	assert.Equal(t, ct, p.EncryptUID(uid), "member ids encrypt deterministically")
	assert.NotEqual(t, ct, p.EncryptUID(uuid.New()))

	got, err := p.DecryptUID(ct)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	other := mustParams(t)
	assert.NotEqual(t, ct, other.EncryptUID(uid))
	_, err = other.DecryptUID(ct)
	assert.ErrorIs(t, err, ErrVerification)

	_, err = p.DecryptUID(ct[:10])
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestProfileKeyEncryption(t *testing.T) {
	p := mustParams(t)
	uid := uuid.New()
	pk, err := GenerateProfileKey()
	require.NoError(t, err)

	ct := p.EncryptProfileKey(pk, uid)
	assert.Len(t, ct, ProfileKeyCiphertextLen)

	got, err := p.DecryptProfileKey(ct, uid)
	require.NoError(t, err)
	assert.Equal(t, pk, got)

	_, err = p.DecryptProfileKey(ct, uuid.New())
	assert.ErrorIs(t, err, ErrVerification)
}

func TestBlobEncryption(t *testing.T) {
	p := mustParams(t)

	for _, plaintext := range [][]byte{nil, []byte("a"), []byte("sixteen bytes!!!"), make([]byte, 100)} {
		ct, err := p.EncryptBlob(plaintext)
		require.NoError(t, err)
		assert.Zero(t, (len(ct)-nonceLen-tagLen)%blobPadding)

		got, err := p.DecryptBlob(ct)
		require.NoError(t, err)
		assert.Equal(t, len(plaintext), len(got))
		if len(plaintext) > 0 {
			assert.Equal(t, plaintext, got)
		}
	}

	a, err := p.EncryptBlob([]byte("title"))
	require.NoError(t, err)
	b, err := p.EncryptBlob([]byte("title"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "blobs use random nonces")

	a[len(a)-1] ^= 1
	_, err = p.DecryptBlob(a)
	assert.ErrorIs(t, err, ErrVerification)

	_, err = p.DecryptBlob([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformed)
}
