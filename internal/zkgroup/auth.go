package zkgroup

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"
)

// AuthCredential proves account ownership for one redemption day.
type AuthCredential struct {
	UID           uuid.UUID
	RedemptionDay uint32
	signature     []byte
}

func authMessage(uid uuid.UUID, day uint32) []byte {
	b := writeUUID(nil, uid)
	return marshal.WriteInt(b, uint64(day))
}

// IssueAuthCredential is the server side of credential issuance.
func (s ServerSecretParams) IssueAuthCredential(uid uuid.UUID, day uint32) []byte {
	b := marshal.WriteInt(nil, tagAuthCredentialResponse)
	b = marshal.WriteInt(b, uint64(day))
	return writeSlice(b, s.sign(domainAuthCredential, authMessage(uid, day)))
}

// ReceiveAuthCredential checks an issued credential for uid and day.
func ReceiveAuthCredential(server ServerPublicParams, uid uuid.UUID, day uint32, response []byte) (AuthCredential, error) {
	r := newReader(response, tagAuthCredentialResponse)
	issuedDay := r.int()
	sig := r.slice()
	if !r.done() {
		return AuthCredential{}, ErrMalformed
	}
	if issuedDay != uint64(day) {
		return AuthCredential{}, fmt.Errorf("%w: issued for day %d, expected %d", ErrVerification, issuedDay, day)
	}
	if err := server.verify(domainAuthCredential, authMessage(uid, day), sig); err != nil {
		return AuthCredential{}, err
	}
	return AuthCredential{UID: uid, RedemptionDay: day, signature: sig}, nil
}

// AuthCredentialPresentation is sent with every group request.
type AuthCredentialPresentation []byte

// CreateAuthCredentialPresentation binds cred to one group.
func CreateAuthCredentialPresentation(params GroupSecretParams, cred AuthCredential) AuthCredentialPresentation {
	b := marshal.WriteInt(nil, tagAuthCredentialPresentation)
	b = marshal.WriteInt(b, uint64(cred.RedemptionDay))
	b = writeUUID(b, cred.UID)
	b = writeSlice(b, params.EncryptUID(cred.UID))
	return writeSlice(b, cred.signature)
}

// AuthPresentationInfo is what the server learns from a valid presentation.
type AuthPresentationInfo struct {
	UID           uuid.UUID
	EncryptedUID  []byte
	RedemptionDay uint32
}

// VerifyAuthCredentialPresentation checks the issuer signature and that the
// redemption day is within one day of today.
func (p ServerPublicParams) VerifyAuthCredentialPresentation(presentation []byte, today uint32) (AuthPresentationInfo, error) {
	r := newReader(presentation, tagAuthCredentialPresentation)
	day := r.int()
	uid := r.uuid()
	encUID := r.slice()
	sig := r.slice()
	if !r.done() || day > uint64(^uint32(0)) {
		return AuthPresentationInfo{}, ErrMalformed
	}
	if len(encUID) != UIDCiphertextLen {
		return AuthPresentationInfo{}, ErrMalformed
	}
	if err := p.verify(domainAuthCredential, authMessage(uid, uint32(day)), sig); err != nil {
		return AuthPresentationInfo{}, err
	}
	if d := int64(day) - int64(today); d < -1 || d > 1 {
		return AuthPresentationInfo{}, ErrExpired
	}
	return AuthPresentationInfo{UID: uid, EncryptedUID: encUID, RedemptionDay: uint32(day)}, nil
}
