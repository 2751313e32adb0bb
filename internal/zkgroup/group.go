package zkgroup

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/tchajed/marshal"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/hkdf"
)

const (
	MasterKeyLen = 32
	keyLen       = 32

	groupParamsInfo = "gophgroups.group-params.v0"
)

// GroupMasterKey is the root secret of a group, shared with members out of
// band. Everything else about the group is derived from it.
type GroupMasterKey [MasterKeyLen]byte

// GenerateGroupMasterKey returns a fresh random master key.
func GenerateGroupMasterKey() (GroupMasterKey, error) {
	var mk GroupMasterKey
	if _, err := io.ReadFull(rand.Reader, mk[:]); err != nil {
		return GroupMasterKey{}, err
	}
	return mk, nil
}

// ParseGroupMasterKey decodes a hex master key.
func ParseGroupMasterKey(s string) (GroupMasterKey, error) {
	var mk GroupMasterKey
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != MasterKeyLen {
		return mk, fmt.Errorf("%w: master key must be %d hex bytes", ErrInvalidParams, MasterKeyLen)
	}
	copy(mk[:], b)
	return mk, nil
}

func (mk GroupMasterKey) String() string {
	return hex.EncodeToString(mk[:])
}

// GroupPublicParams is the public half of the group parameters. It is sent
// to the server as the group public key.
type GroupPublicParams [keyLen]byte

func (p GroupPublicParams) Identifier() GroupIdentifier {
	return GroupIdentifier(blake3.Sum256(p[:]))
}

// GroupIdentifier names a group locally and on the server.
type GroupIdentifier [32]byte

func (id GroupIdentifier) String() string {
	return hex.EncodeToString(id[:])
}

// GroupSecretParams holds the per-group keys. Values are only valid for the
// group whose master key produced them.
type GroupSecretParams struct {
	masterKey     GroupMasterKey
	blobKey       [keyLen]byte
	uidKey        [keyLen]byte
	profileKeyKey [keyLen]byte
	public        GroupPublicParams
}

// DeriveGroupSecretParams expands a master key into group parameters. An
// all-zero master key is rejected.
func DeriveGroupSecretParams(mk GroupMasterKey) (GroupSecretParams, error) {
	var zero GroupMasterKey
	if subtle.ConstantTimeCompare(mk[:], zero[:]) == 1 {
		return GroupSecretParams{}, fmt.Errorf("%w: empty master key", ErrInvalidParams)
	}

	kdf := hkdf.New(sha256.New, mk[:], nil, []byte(groupParamsInfo))
	p := GroupSecretParams{masterKey: mk}
	for _, k := range [][]byte{p.blobKey[:], p.uidKey[:], p.profileKeyKey[:], p.public[:]} {
		if _, err := io.ReadFull(kdf, k); err != nil {
			return GroupSecretParams{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}
	return p, nil
}

func (p GroupSecretParams) MasterKey() GroupMasterKey {
	return p.masterKey
}

func (p GroupSecretParams) PublicParams() GroupPublicParams {
	return p.public
}

func (p GroupSecretParams) Identifier() GroupIdentifier {
	return p.public.Identifier()
}

// Serialize encodes the parameters for local storage.
func (p GroupSecretParams) Serialize() []byte {
	b := marshal.WriteInt(nil, tagGroupSecretParams)
	b = marshal.WriteBytes(b, p.masterKey[:])
	b = marshal.WriteBytes(b, p.blobKey[:])
	b = marshal.WriteBytes(b, p.uidKey[:])
	b = marshal.WriteBytes(b, p.profileKeyKey[:])
	return marshal.WriteBytes(b, p.public[:])
}

// DeserializeGroupSecretParams decodes Serialize output and checks that the
// stored keys are the ones the master key derives.
func DeserializeGroupSecretParams(b []byte) (GroupSecretParams, error) {
	r := newReader(b, tagGroupSecretParams)
	var mk GroupMasterKey
	copy(mk[:], r.fixed(MasterKeyLen))
	stored := r.fixed(4 * keyLen)
	if !r.done() {
		return GroupSecretParams{}, fmt.Errorf("%w: bad encoding", ErrInvalidParams)
	}

	p, err := DeriveGroupSecretParams(mk)
	if err != nil {
		return GroupSecretParams{}, err
	}
	if !bytes.Equal(p.Serialize()[8+MasterKeyLen:], stored) {
		return GroupSecretParams{}, fmt.Errorf("%w: keys do not match master key", ErrInvalidParams)
	}
	return p, nil
}
