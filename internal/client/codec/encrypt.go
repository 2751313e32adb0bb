package codec

import (
	"bytes"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

func encodeAccess(a models.AccessControl) pb.AccessControl {
	return pb.AccessControl{Attributes: uint32(a.Attributes), Members: uint32(a.Members)}
}

func encryptBlob(params zkgroup.GroupSecretParams, blob *pb.GroupAttributeBlob) ([]byte, error) {
	ct, err := params.EncryptBlob(blob.Marshal())
	if err != nil {
		return nil, fmt.Errorf("encrypt attribute: %w", err)
	}
	return ct, nil
}

func encryptTitle(params zkgroup.GroupSecretParams, title string) ([]byte, error) {
	return encryptBlob(params, &pb.GroupAttributeBlob{Title: &title})
}

func encryptTimer(params zkgroup.GroupSecretParams, seconds uint32) ([]byte, error) {
	return encryptBlob(params, &pb.GroupAttributeBlob{DisappearingMessagesDuration: &seconds})
}

func encodeNewMember(params zkgroup.GroupSecretParams, m models.Member, creds models.ProfileKeyCredentialMap) (*pb.Member, error) {
	cred, ok := creds[m.UID]
	if !ok {
		return nil, fmt.Errorf("%w: no profile key credential for %s", common.ErrCredentialFetchFailed, m.UID)
	}
	return &pb.Member{
		UserID:       params.EncryptUID(m.UID),
		Role:         uint32(m.Role),
		ProfileKey:   params.EncryptProfileKey(cred.ProfileKey, m.UID),
		Presentation: zkgroup.CreateProfileKeyCredentialPresentation(params, cred),
	}, nil
}

// EncryptChangeActions turns decrypted actions into their wire form.
func EncryptChangeActions(params zkgroup.GroupSecretParams, a models.ChangeActions, creds models.ProfileKeyCredentialMap) (*pb.GroupChangeActions, error) {
	out := &pb.GroupChangeActions{
		SourceUUID: params.EncryptUID(a.SourceUID),
		Revision:   a.Revision,
	}
	for _, m := range a.AddMembers {
		member, err := encodeNewMember(params, m, creds)
		if err != nil {
			return nil, err
		}
		out.AddMembers = append(out.AddMembers, &pb.AddMemberAction{Added: member})
	}
	for _, uid := range a.DeleteMembers {
		out.DeleteMembers = append(out.DeleteMembers, &pb.DeleteMemberAction{DeletedUserID: params.EncryptUID(uid)})
	}
	for _, rc := range a.ModifyMemberRoles {
		out.ModifyMemberRoles = append(out.ModifyMemberRoles, &pb.ModifyMemberRoleAction{UserID: params.EncryptUID(rc.UID), Role: uint32(rc.Role)})
	}
	if a.ModifyTitle != nil {
		ct, err := encryptTitle(params, *a.ModifyTitle)
		if err != nil {
			return nil, err
		}
		out.ModifyTitle = &pb.ModifyTitleAction{Title: ct}
	}
	if a.ModifyAvatar != nil {
		out.ModifyAvatar = &pb.ModifyAvatarAction{Avatar: *a.ModifyAvatar}
	}
	if a.ModifyDisappearingMessagesTimer != nil {
		ct, err := encryptTimer(params, *a.ModifyDisappearingMessagesTimer)
		if err != nil {
			return nil, err
		}
		out.ModifyDisappearingMessagesTimer = &pb.ModifyDisappearingMessagesTimerAction{Timer: ct}
	}
	if a.ModifyAttributesAccess != nil {
		out.ModifyAttributesAccess = &pb.ModifyAccessAction{Access: uint32(*a.ModifyAttributesAccess)}
	}
	if a.ModifyMemberAccess != nil {
		out.ModifyMemberAccess = &pb.ModifyAccessAction{Access: uint32(*a.ModifyMemberAccess)}
	}
	return out, nil
}

func decodeRole(r uint32) (models.Role, error) {
	switch models.Role(r) {
	case models.RoleDefault, models.RoleAdministrator:
		return models.Role(r), nil
	}
	return models.RoleUnknown, fmt.Errorf("%w: unknown role %d", common.ErrMalformedResponse, r)
}

func decodeAccess(v uint32) (models.AccessRequired, error) {
	if models.AccessRequired(v) > models.AccessUnsatisfiable {
		return 0, fmt.Errorf("%w: unknown access level %d", common.ErrMalformedResponse, v)
	}
	return models.AccessRequired(v), nil
}

func decryptBlob(params zkgroup.GroupSecretParams, ct []byte) (*pb.GroupAttributeBlob, error) {
	pt, err := params.DecryptBlob(ct)
	if err != nil {
		return nil, malformed(err)
	}
	var blob pb.GroupAttributeBlob
	if err := blob.Unmarshal(pt); err != nil {
		return nil, malformed(err)
	}
	return &blob, nil
}

func decryptTitle(params zkgroup.GroupSecretParams, ct []byte) (string, error) {
	blob, err := decryptBlob(params, ct)
	if err != nil {
		return "", err
	}
	if blob.Title == nil {
		return "", fmt.Errorf("%w: attribute is not a title", common.ErrMalformedResponse)
	}
	return *blob.Title, nil
}

func decryptTimer(params zkgroup.GroupSecretParams, ct []byte) (uint32, error) {
	blob, err := decryptBlob(params, ct)
	if err != nil {
		return 0, err
	}
	if blob.DisappearingMessagesDuration == nil {
		return 0, fmt.Errorf("%w: attribute is not a timer", common.ErrMalformedResponse)
	}
	return *blob.DisappearingMessagesDuration, nil
}

func decryptUID(params zkgroup.GroupSecretParams, ct []byte) (uuid.UUID, error) {
	uid, err := params.DecryptUID(ct)
	if err != nil {
		return uuid.Nil, malformed(err)
	}
	return uid, nil
}

func decryptMember(params zkgroup.GroupSecretParams, m *pb.Member) (models.Member, error) {
	uid, err := decryptUID(params, m.UserID)
	if err != nil {
		return models.Member{}, err
	}
	role, err := decodeRole(m.Role)
	if err != nil {
		return models.Member{}, err
	}
	pk, err := params.DecryptProfileKey(m.ProfileKey, uid)
	if err != nil {
		return models.Member{}, malformed(err)
	}
	return models.Member{UID: uid, Role: role, ProfileKey: pk, JoinedAtRevision: m.JoinedAtRevision}, nil
}

// DecryptGroup decrypts every field of a server Group.
func DecryptGroup(params zkgroup.GroupSecretParams, g *pb.Group) (models.GroupV2Snapshot, error) {
	public := params.PublicParams()
	if len(g.PublicKey) > 0 && !bytes.Equal(g.PublicKey, public[:]) {
		return models.GroupV2Snapshot{}, fmt.Errorf("%w: group public key does not match", common.ErrMalformedResponse)
	}

	s := models.GroupV2Snapshot{Revision: g.Revision, Avatar: g.Avatar}
	var err error
	if len(g.Title) > 0 {
		if s.Title, err = decryptTitle(params, g.Title); err != nil {
			return models.GroupV2Snapshot{}, err
		}
	}
	if len(g.DisappearingMessagesTimer) > 0 {
		if s.DisappearingMessagesTimer, err = decryptTimer(params, g.DisappearingMessagesTimer); err != nil {
			return models.GroupV2Snapshot{}, err
		}
	}
	if g.AccessControl != nil {
		if s.Access.Attributes, err = decodeAccess(g.AccessControl.Attributes); err != nil {
			return models.GroupV2Snapshot{}, err
		}
		if s.Access.Members, err = decodeAccess(g.AccessControl.Members); err != nil {
			return models.GroupV2Snapshot{}, err
		}
	}
	for _, m := range g.Members {
		member, err := decryptMember(params, m)
		if err != nil {
			return models.GroupV2Snapshot{}, err
		}
		s.Members = append(s.Members, member)
	}
	return s, nil
}

// DecryptChangeActions decrypts verified wire actions.
func DecryptChangeActions(params zkgroup.GroupSecretParams, a *pb.GroupChangeActions) (models.ChangeActions, error) {
	source, err := decryptUID(params, a.SourceUUID)
	if err != nil {
		return models.ChangeActions{}, err
	}
	out := models.ChangeActions{SourceUID: source, Revision: a.Revision}

	for _, add := range a.AddMembers {
		if add.Added == nil {
			return models.ChangeActions{}, fmt.Errorf("%w: empty add member action", common.ErrMalformedResponse)
		}
		m, err := decryptMember(params, add.Added)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.AddMembers = append(out.AddMembers, m)
	}
	for _, del := range a.DeleteMembers {
		uid, err := decryptUID(params, del.DeletedUserID)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.DeleteMembers = append(out.DeleteMembers, uid)
	}
	for _, mod := range a.ModifyMemberRoles {
		uid, err := decryptUID(params, mod.UserID)
		if err != nil {
			return models.ChangeActions{}, err
		}
		role, err := decodeRole(mod.Role)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.ModifyMemberRoles = append(out.ModifyMemberRoles, models.RoleChange{UID: uid, Role: role})
	}
	if a.ModifyTitle != nil {
		title, err := decryptTitle(params, a.ModifyTitle.Title)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.ModifyTitle = &title
	}
	if a.ModifyAvatar != nil {
		avatar := a.ModifyAvatar.Avatar
		out.ModifyAvatar = &avatar
	}
	if a.ModifyDisappearingMessagesTimer != nil {
		timer, err := decryptTimer(params, a.ModifyDisappearingMessagesTimer.Timer)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.ModifyDisappearingMessagesTimer = &timer
	}
	if a.ModifyAttributesAccess != nil {
		access, err := decodeAccess(a.ModifyAttributesAccess.Access)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.ModifyAttributesAccess = &access
	}
	if a.ModifyMemberAccess != nil {
		access, err := decodeAccess(a.ModifyMemberAccess.Access)
		if err != nil {
			return models.ChangeActions{}, err
		}
		out.ModifyMemberAccess = &access
	}
	return out, nil
}
