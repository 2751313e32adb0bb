// Package codec builds group service requests and parses their responses.
//
// Every outbound field that identifies a member or describes the group is
// encrypted with the group's secret params. Every change payload is
// checked against the server signature before it is decoded.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

const (
	GroupsPath     = "/v1/groups/"
	ChangeLogPath  = "/v1/groups/logs/%d"
	AvatarFormPath = "/v1/groups/avatar/form"
)

type Codec struct {
	server zkgroup.ServerPublicParams
	now    func() time.Time
}

// New returns a codec that verifies against server. A nil now uses
// time.Now.
func New(server zkgroup.ServerPublicParams, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{server: server, now: now}
}

// Authorization renders the group Authorization header from today's auth
// credential: Basic base64(hex(groupPublicParams):hex(presentation)).
func (c *Codec) Authorization(params zkgroup.GroupSecretParams, creds models.AuthCredentialMap) (string, error) {
	today := timex.RedemptionDay(c.now())
	cred, ok := creds[today]
	if !ok {
		return "", fmt.Errorf("%w: no auth credential for day %d", common.ErrCredentialFetchFailed, today)
	}
	public := params.PublicParams()
	presentation := zkgroup.CreateAuthCredentialPresentation(params, cred)
	raw := hex.EncodeToString(public[:]) + ":" + hex.EncodeToString(presentation)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

func (c *Codec) request(method, path string, body []byte, params zkgroup.GroupSecretParams, creds models.AuthCredentialMap) (*client.Request, error) {
	auth, err := c.Authorization(params, creds)
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	h.Set(common.AuthorizationHeaderName, auth)
	return &client.Request{Method: method, Path: path, Body: body, Header: h}, nil
}

// BuildCreateRequest encodes state as a new group at revision 0. Every
// member needs a profile key credential in profileCreds.
func (c *Codec) BuildCreateRequest(params zkgroup.GroupSecretParams, state models.GroupState, profileCreds models.ProfileKeyCredentialMap, authCreds models.AuthCredentialMap) (*client.Request, error) {
	public := params.PublicParams()
	access := encodeAccess(state.Access)
	g := &pb.Group{
		PublicKey:     public[:],
		Avatar:        state.Avatar,
		AccessControl: &access,
		Revision:      0,
	}

	var err error
	if g.Title, err = encryptTitle(params, state.Title); err != nil {
		return nil, err
	}
	if g.DisappearingMessagesTimer, err = encryptTimer(params, state.DisappearingMessagesTimer); err != nil {
		return nil, err
	}
	for _, m := range state.Members {
		member, err := encodeNewMember(params, m, profileCreds)
		if err != nil {
			return nil, err
		}
		g.Members = append(g.Members, member)
	}

	return c.request(http.MethodPut, GroupsPath, g.Marshal(), params, authCreds)
}

// BuildUpdateRequest encodes actions. Added members need a profile key
// credential in profileCreds. The request accepts a 409 answer.
func (c *Codec) BuildUpdateRequest(params zkgroup.GroupSecretParams, actions models.ChangeActions, profileCreds models.ProfileKeyCredentialMap, authCreds models.AuthCredentialMap) (*client.Request, error) {
	a, err := EncryptChangeActions(params, actions, profileCreds)
	if err != nil {
		return nil, err
	}
	req, err := c.request(http.MethodPatch, GroupsPath, a.Marshal(), params, authCreds)
	if err != nil {
		return nil, err
	}
	req.AllowConflict = true
	return req, nil
}

func (c *Codec) BuildFetchSnapshotRequest(params zkgroup.GroupSecretParams, authCreds models.AuthCredentialMap) (*client.Request, error) {
	return c.request(http.MethodGet, GroupsPath, nil, params, authCreds)
}

// BuildFetchChangeLogRequest asks for every change from fromRevision on.
// Revision 0 is the group's creation and has no change entry.
func (c *Codec) BuildFetchChangeLogRequest(params zkgroup.GroupSecretParams, authCreds models.AuthCredentialMap, fromRevision uint32) (*client.Request, error) {
	if fromRevision == 0 {
		return nil, fmt.Errorf("%w: change log starts at revision 1", common.ErrPreconditionFailed)
	}
	return c.request(http.MethodGet, fmt.Sprintf(ChangeLogPath, fromRevision), nil, params, authCreds)
}

// BuildAvatarFormRequest asks for a presigned upload target for a new
// group avatar.
func (c *Codec) BuildAvatarFormRequest(params zkgroup.GroupSecretParams, authCreds models.AuthCredentialMap) (*client.Request, error) {
	return c.request(http.MethodGet, AvatarFormPath, nil, params, authCreds)
}

// ParseAvatarUploadAttributes decodes the avatar form response. Both the
// key and the URL are required.
func (c *Codec) ParseAvatarUploadAttributes(body []byte) (*pb.AvatarUploadAttributes, error) {
	var attrs pb.AvatarUploadAttributes
	if err := attrs.Unmarshal(body); err != nil {
		return nil, malformed(err)
	}
	if attrs.Key == "" || attrs.URL == "" {
		return nil, fmt.Errorf("%w: avatar upload attributes incomplete", common.ErrMalformedResponse)
	}
	return &attrs, nil
}

// EncryptAvatar wraps image bytes in an attribute blob encrypted for the
// group.
func EncryptAvatar(params zkgroup.GroupSecretParams, image []byte) ([]byte, error) {
	if image == nil {
		image = []byte{}
	}
	return encryptBlob(params, &pb.GroupAttributeBlob{Avatar: image})
}

// DecryptAvatar reverses EncryptAvatar.
func DecryptAvatar(params zkgroup.GroupSecretParams, ciphertext []byte) ([]byte, error) {
	blob, err := decryptBlob(params, ciphertext)
	if err != nil {
		return nil, err
	}
	if blob.Avatar == nil {
		return nil, fmt.Errorf("%w: blob is not an avatar", common.ErrMalformedResponse)
	}
	return blob.Avatar, nil
}

// ParseSnapshot decodes and decrypts a Group response.
func (c *Codec) ParseSnapshot(params zkgroup.GroupSecretParams, body []byte) (models.GroupV2Snapshot, error) {
	var g pb.Group
	if err := g.Unmarshal(body); err != nil {
		return models.GroupV2Snapshot{}, malformed(err)
	}
	return DecryptGroup(params, &g)
}

// ParseAndVerifyChangeActions checks the server signature of a serialized
// GroupChange and returns its decrypted actions.
func (c *Codec) ParseAndVerifyChangeActions(params zkgroup.GroupSecretParams, groupChange []byte) (models.ChangeActions, error) {
	var gc pb.GroupChange
	if err := gc.Unmarshal(groupChange); err != nil {
		return models.ChangeActions{}, malformed(err)
	}
	return c.verifyChange(params, &gc)
}

func (c *Codec) verifyChange(params zkgroup.GroupSecretParams, gc *pb.GroupChange) (models.ChangeActions, error) {
	if err := c.server.VerifyChangeActions(gc.Actions, gc.ServerSignature); err != nil {
		return models.ChangeActions{}, fmt.Errorf("%w: %w", common.ErrProtocolVerificationFailed, err)
	}
	var a pb.GroupChangeActions
	if err := a.Unmarshal(gc.Actions); err != nil {
		return models.ChangeActions{}, malformed(err)
	}
	return DecryptChangeActions(params, &a)
}

// ParseChangeLog decodes a GroupChanges response. Revisions must be
// strictly ascending.
func (c *Codec) ParseChangeLog(params zkgroup.GroupSecretParams, body []byte) ([]models.GroupV2Change, error) {
	var changes pb.GroupChanges
	if err := changes.Unmarshal(body); err != nil {
		return nil, malformed(err)
	}

	result := make([]models.GroupV2Change, 0, len(changes.GroupChanges))
	for i, entry := range changes.GroupChanges {
		if entry.GroupChange == nil {
			return nil, fmt.Errorf("%w: change %d has no payload", common.ErrMalformedResponse, i)
		}
		actions, err := c.verifyChange(params, entry.GroupChange)
		if err != nil {
			return nil, err
		}
		if n := len(result); n > 0 && actions.Revision <= result[n-1].Revision {
			return nil, fmt.Errorf("%w: revision %d after %d", common.ErrMalformedResponse, actions.Revision, result[n-1].Revision)
		}
		result = append(result, models.GroupV2Change{
			Revision: actions.Revision,
			Actions:  actions,
			Signed:   entry.GroupChange.Marshal(),
		})
	}
	return result, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
}
