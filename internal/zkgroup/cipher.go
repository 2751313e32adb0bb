package zkgroup

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	nonceLen = chacha20poly1305.NonceSizeX
	tagLen   = chacha20poly1305.Overhead

	// UIDCiphertextLen is the size of an encrypted member id.
	UIDCiphertextLen = nonceLen + 16 + tagLen
	// ProfileKeyCiphertextLen is the size of an encrypted profile key.
	ProfileKeyCiphertextLen = nonceLen + 32 + tagLen

	blobPadding = 16
)

func newAEAD(key [keyLen]byte) cipher.AEAD {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		// key length is fixed at compile time
		panic(err)
	}
	return aead
}

// syntheticNonce derives a nonce from the plaintext so equal inputs encrypt
// to equal ciphertexts. The server relies on that to match members.
func syntheticNonce(key [keyLen]byte, label string, parts ...[]byte) []byte {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic(err)
	}
	_, _ = h.Write([]byte(label))
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(nil)[:nonceLen]
}

func sealDeterministic(key [keyLen]byte, label string, plaintext, ad []byte) []byte {
	nonce := syntheticNonce(key, label, plaintext, ad)
	return newAEAD(key).Seal(nonce, nonce, plaintext, ad)
}

func openDeterministic(key [keyLen]byte, label string, ciphertext, ad []byte) ([]byte, error) {
	if len(ciphertext) < nonceLen+tagLen {
		return nil, ErrMalformed
	}
	nonce, sealed := ciphertext[:nonceLen], ciphertext[nonceLen:]
	plaintext, err := newAEAD(key).Open(nil, nonce, sealed, ad)
	if err != nil {
		return nil, ErrVerification
	}
	if !bytes.Equal(nonce, syntheticNonce(key, label, plaintext, ad)) {
		return nil, ErrVerification
	}
	return plaintext, nil
}

// EncryptUID encrypts a member id deterministically.
func (p GroupSecretParams) EncryptUID(uid uuid.UUID) []byte {
	return sealDeterministic(p.uidKey, "uid", uid[:], p.public[:])
}

// DecryptUID reverses EncryptUID.
func (p GroupSecretParams) DecryptUID(ciphertext []byte) (uuid.UUID, error) {
	if len(ciphertext) != UIDCiphertextLen {
		return uuid.Nil, fmt.Errorf("%w: uid ciphertext length %d", ErrMalformed, len(ciphertext))
	}
	plaintext, err := openDeterministic(p.uidKey, "uid", ciphertext, p.public[:])
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(plaintext)
}

// EncryptProfileKey encrypts a member's profile key, bound to the member id.
func (p GroupSecretParams) EncryptProfileKey(pk ProfileKey, uid uuid.UUID) []byte {
	return sealDeterministic(p.profileKeyKey, "profile-key", pk[:], uid[:])
}

// DecryptProfileKey reverses EncryptProfileKey. It fails when uid is not the
// id the key was encrypted for.
func (p GroupSecretParams) DecryptProfileKey(ciphertext []byte, uid uuid.UUID) (ProfileKey, error) {
	var pk ProfileKey
	if len(ciphertext) != ProfileKeyCiphertextLen {
		return pk, fmt.Errorf("%w: profile key ciphertext length %d", ErrMalformed, len(ciphertext))
	}
	plaintext, err := openDeterministic(p.profileKeyKey, "profile-key", ciphertext, uid[:])
	if err != nil {
		return pk, err
	}
	copy(pk[:], plaintext)
	return pk, nil
}

// EncryptBlob encrypts group attributes (title, timer, avatar bytes). The
// plaintext is length-prefixed and padded to a multiple of 16 bytes.
func (p GroupSecretParams) EncryptBlob(plaintext []byte) ([]byte, error) {
	padded := make([]byte, 4, 4+len(plaintext)+blobPadding)
	binary.BigEndian.PutUint32(padded, uint32(len(plaintext)))
	padded = append(padded, plaintext...)
	if rem := len(padded) % blobPadding; rem != 0 {
		padded = append(padded, make([]byte, blobPadding-rem)...)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return newAEAD(p.blobKey).Seal(nonce, nonce, padded, p.public[:]), nil
}

// DecryptBlob reverses EncryptBlob.
func (p GroupSecretParams) DecryptBlob(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceLen+tagLen {
		return nil, ErrMalformed
	}
	padded, err := newAEAD(p.blobKey).Open(nil, ciphertext[:nonceLen], ciphertext[nonceLen:], p.public[:])
	if err != nil {
		return nil, ErrVerification
	}
	if len(padded) < 4 {
		return nil, ErrMalformed
	}
	n := binary.BigEndian.Uint32(padded)
	if uint64(n) > uint64(len(padded)-4) {
		return nil, ErrMalformed
	}
	return padded[4 : 4+n], nil
}
