package zkgroup

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"
	"github.com/zeebo/blake3"
)

// ProfileKey encrypts a user's profile. Group members learn each other's
// profile keys through the group state.
type ProfileKey [32]byte

func GenerateProfileKey() (ProfileKey, error) {
	var pk ProfileKey
	if _, err := io.ReadFull(rand.Reader, pk[:]); err != nil {
		return ProfileKey{}, err
	}
	return pk, nil
}

func ParseProfileKey(s string) (ProfileKey, error) {
	var pk ProfileKey
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(pk) {
		return pk, fmt.Errorf("%w: profile key must be %d hex bytes", ErrMalformed, len(pk))
	}
	copy(pk[:], b)
	return pk, nil
}

func (pk ProfileKey) String() string {
	return hex.EncodeToString(pk[:])
}

func (pk ProfileKey) keyed(label string, uid uuid.UUID) [32]byte {
	h, err := blake3.NewKeyed(pk[:])
	if err != nil {
		panic(err)
	}
	_, _ = h.Write([]byte(label))
	_, _ = h.Write(uid[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Version names the profile encrypted under this key for uid. It is public
// and lets a requester ask the server for the matching commitment.
func (pk ProfileKey) Version(uid uuid.UUID) string {
	v := pk.keyed("version", uid)
	return hex.EncodeToString(v[:])
}

// ProfileKeyCommitment binds a profile key to a uid without revealing it.
type ProfileKeyCommitment [32]byte

func (pk ProfileKey) Commitment(uid uuid.UUID) ProfileKeyCommitment {
	return ProfileKeyCommitment(pk.keyed("commitment", uid))
}

// ProfileKeyCredentialRequestContext is kept by the requester until the
// server answers.
type ProfileKeyCredentialRequestContext struct {
	UID        uuid.UUID
	ProfileKey ProfileKey
}

func NewProfileKeyCredentialRequestContext(uid uuid.UUID, pk ProfileKey) ProfileKeyCredentialRequestContext {
	return ProfileKeyCredentialRequestContext{UID: uid, ProfileKey: pk}
}

// Request is the blob sent to the server.
func (c ProfileKeyCredentialRequestContext) Request() []byte {
	b := marshal.WriteInt(nil, tagProfileKeyCredentialRequest)
	b = writeUUID(b, c.UID)
	commitment := c.ProfileKey.Commitment(c.UID)
	return marshal.WriteBytes(b, commitment[:])
}

func profileKeyMessage(uid uuid.UUID, commitment ProfileKeyCommitment, expiration int64) []byte {
	b := writeUUID(nil, uid)
	b = marshal.WriteBytes(b, commitment[:])
	return marshal.WriteInt(b, uint64(expiration))
}

// IssueProfileKeyCredential answers a request when it matches the
// commitment the profile owner published.
func (s ServerSecretParams) IssueProfileKeyCredential(request []byte, uid uuid.UUID, published ProfileKeyCommitment, expiration time.Time) ([]byte, error) {
	r := newReader(request, tagProfileKeyCredentialRequest)
	reqUID := r.uuid()
	var commitment ProfileKeyCommitment
	copy(commitment[:], r.fixed(len(commitment)))
	if !r.done() {
		return nil, ErrMalformed
	}
	if reqUID != uid || commitment != published {
		return nil, ErrVerification
	}

	exp := expiration.Unix()
	b := marshal.WriteInt(nil, tagProfileKeyCredentialResponse)
	b = marshal.WriteInt(b, uint64(exp))
	return writeSlice(b, s.sign(domainProfileKeyCredential, profileKeyMessage(uid, commitment, exp))), nil
}

// ProfileKeyCredential proves that ProfileKey is the key behind the
// commitment the server holds for UID.
type ProfileKeyCredential struct {
	UID        uuid.UUID
	ProfileKey ProfileKey
	Expiration time.Time
	signature  []byte
}

// ReceiveProfileKeyCredential verifies a server response for ctx.
func ReceiveProfileKeyCredential(server ServerPublicParams, ctx ProfileKeyCredentialRequestContext, response []byte, now time.Time) (ProfileKeyCredential, error) {
	r := newReader(response, tagProfileKeyCredentialResponse)
	exp := int64(r.int())
	sig := r.slice()
	if !r.done() {
		return ProfileKeyCredential{}, ErrMalformed
	}
	commitment := ctx.ProfileKey.Commitment(ctx.UID)
	if err := server.verify(domainProfileKeyCredential, profileKeyMessage(ctx.UID, commitment, exp), sig); err != nil {
		return ProfileKeyCredential{}, err
	}
	cred := ProfileKeyCredential{UID: ctx.UID, ProfileKey: ctx.ProfileKey, Expiration: time.Unix(exp, 0).UTC(), signature: sig}
	if cred.Expired(now) {
		return ProfileKeyCredential{}, ErrExpired
	}
	return cred, nil
}

func (c ProfileKeyCredential) Expired(now time.Time) bool {
	return !now.Before(c.Expiration)
}

// Serialize encodes the credential for the local credential store.
func (c ProfileKeyCredential) Serialize() []byte {
	b := marshal.WriteInt(nil, tagProfileKeyCredential)
	b = writeUUID(b, c.UID)
	b = marshal.WriteBytes(b, c.ProfileKey[:])
	b = marshal.WriteInt(b, uint64(c.Expiration.Unix()))
	return writeSlice(b, c.signature)
}

func DeserializeProfileKeyCredential(b []byte) (ProfileKeyCredential, error) {
	r := newReader(b, tagProfileKeyCredential)
	uid := r.uuid()
	var pk ProfileKey
	copy(pk[:], r.fixed(len(pk)))
	exp := int64(r.int())
	sig := r.slice()
	if !r.done() {
		return ProfileKeyCredential{}, ErrMalformed
	}
	return ProfileKeyCredential{UID: uid, ProfileKey: pk, Expiration: time.Unix(exp, 0).UTC(), signature: sig}, nil
}

// ProfileKeyCredentialPresentation accompanies a member being added to a
// group. It carries the member's id and profile key encrypted for the group.
type ProfileKeyCredentialPresentation []byte

func CreateProfileKeyCredentialPresentation(params GroupSecretParams, cred ProfileKeyCredential) ProfileKeyCredentialPresentation {
	commitment := cred.ProfileKey.Commitment(cred.UID)
	b := marshal.WriteInt(nil, tagProfileKeyCredentialPresentation)
	b = writeUUID(b, cred.UID)
	b = marshal.WriteBytes(b, commitment[:])
	b = marshal.WriteInt(b, uint64(cred.Expiration.Unix()))
	b = writeSlice(b, cred.signature)
	b = writeSlice(b, params.EncryptUID(cred.UID))
	return writeSlice(b, params.EncryptProfileKey(cred.ProfileKey, cred.UID))
}

// ProfileKeyPresentationInfo is what the server stores for an added member.
type ProfileKeyPresentationInfo struct {
	UID                 uuid.UUID
	EncryptedUID        []byte
	EncryptedProfileKey []byte
}

// VerifyProfileKeyCredentialPresentation checks the issuer signature and the
// credential expiration.
func (p ServerPublicParams) VerifyProfileKeyCredentialPresentation(presentation []byte, now time.Time) (ProfileKeyPresentationInfo, error) {
	r := newReader(presentation, tagProfileKeyCredentialPresentation)
	uid := r.uuid()
	var commitment ProfileKeyCommitment
	copy(commitment[:], r.fixed(len(commitment)))
	exp := int64(r.int())
	sig := r.slice()
	encUID := r.slice()
	encPK := r.slice()
	if !r.done() || len(encUID) != UIDCiphertextLen || len(encPK) != ProfileKeyCiphertextLen {
		return ProfileKeyPresentationInfo{}, ErrMalformed
	}
	if err := p.verify(domainProfileKeyCredential, profileKeyMessage(uid, commitment, exp), sig); err != nil {
		return ProfileKeyPresentationInfo{}, err
	}
	if !now.Before(time.Unix(exp, 0)) {
		return ProfileKeyPresentationInfo{}, ErrExpired
	}
	return ProfileKeyPresentationInfo{UID: uid, EncryptedUID: encUID, EncryptedProfileKey: encPK}, nil
}
