package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/groups"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

// ConflictError is returned when a change does not target the revision
// after the current one. Current is the group as stored.
type ConflictError struct {
	Current *pb.Group
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: group is at revision %d", e.Current.Revision)
}

func (e *ConflictError) Is(target error) bool {
	return target == common.ErrConflict
}

// GroupAuth is an authenticated group request: the group it names and the
// member presenting the credential.
type GroupAuth struct {
	PublicKey zkgroup.GroupPublicParams
	Member    zkgroup.AuthPresentationInfo
}

type GroupService struct {
	repo      groups.Repository
	server    zkgroup.ServerSecretParams
	presigner Presigner
	now       func() time.Time
	logger    logging.Logger
}

func NewGroupService(repo groups.Repository, server zkgroup.ServerSecretParams, presigner Presigner, now func() time.Time, logger logging.Logger) *GroupService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &GroupService{repo: repo, server: server, presigner: presigner, now: now, logger: logger.With("module", "groups")}
}

// Authenticate parses "Basic base64(hex(groupPublicParams):hex(presentation))"
// and verifies the presentation against today.
func (s *GroupService) Authenticate(header string) (GroupAuth, error) {
	user, presentation, err := cryptox.ParseBasicAuth(header)
	if err != nil {
		return GroupAuth{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}
	raw, err := hex.DecodeString(user)
	var pub zkgroup.GroupPublicParams
	if err != nil || len(raw) != len(pub) {
		return GroupAuth{}, fmt.Errorf("%w: bad group public key", common.ErrUnauthorized)
	}
	copy(pub[:], raw)

	info, err := s.server.PublicParams().VerifyAuthCredentialPresentation(presentation, timex.RedemptionDay(s.now()))
	if err != nil {
		return GroupAuth{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}
	return GroupAuth{PublicKey: pub, Member: info}, nil
}

func findMember(g *pb.Group, encUID []byte) (int, *pb.Member) {
	for i, m := range g.Members {
		if bytes.Equal(m.UserID, encUID) {
			return i, m
		}
	}
	return -1, nil
}

func validRole(r uint32) bool {
	return r == pb.RoleDefault || r == pb.RoleAdministrator
}

func validAccess(a uint32) bool {
	return a >= pb.AccessAny && a <= pb.AccessUnsatisfiable
}

// admitMember checks the profile key credential presentation of a member
// being added and strips it.
func (s *GroupService) admitMember(m *pb.Member, revision uint32) error {
	if m == nil || !validRole(m.Role) {
		return fmt.Errorf("%w: invalid member", ErrBadRequest)
	}
	info, err := s.server.PublicParams().VerifyProfileKeyCredentialPresentation(m.Presentation, s.now())
	if err != nil {
		return fmt.Errorf("%w: member presentation: %w", ErrBadRequest, err)
	}
	if !bytes.Equal(info.EncryptedUID, m.UserID) || !bytes.Equal(info.EncryptedProfileKey, m.ProfileKey) {
		return fmt.Errorf("%w: member does not match its presentation", ErrBadRequest)
	}
	m.Presentation = nil
	m.JoinedAtRevision = revision
	return nil
}

// Create stores a new group at revision 0. The requester must be one of
// its members.
func (s *GroupService) Create(ctx context.Context, auth GroupAuth, g *pb.Group) error {
	if !bytes.Equal(g.PublicKey, auth.PublicKey[:]) {
		return fmt.Errorf("%w: public key does not match authorization", ErrBadRequest)
	}
	if g.Revision != 0 {
		return fmt.Errorf("%w: new group must be at revision 0", ErrBadRequest)
	}
	if g.AccessControl == nil || !validAccess(g.AccessControl.Attributes) || !validAccess(g.AccessControl.Members) {
		return fmt.Errorf("%w: invalid access control", ErrBadRequest)
	}

	seen := map[string]struct{}{}
	for _, m := range g.Members {
		if err := s.admitMember(m, 0); err != nil {
			return err
		}
		if _, dup := seen[string(m.UserID)]; dup {
			return fmt.Errorf("%w: duplicate member", ErrBadRequest)
		}
		seen[string(m.UserID)] = struct{}{}
	}
	if _, self := findMember(g, auth.Member.EncryptedUID); self == nil {
		return fmt.Errorf("%w: creator is not a member", ErrForbidden)
	}

	rec := &models.GroupRecord{PublicKey: auth.PublicKey, Group: g}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			current, getErr := s.repo.Get(ctx, auth.PublicKey)
			if getErr != nil {
				return getErr
			}
			return &ConflictError{Current: current.Group}
		}
		return err
	}
	s.logger.Info(ctx, "group created", "group", auth.PublicKey.Identifier().String(), "members", len(g.Members))
	return nil
}

// memberOf loads the group and checks that the requester belongs to it.
func (s *GroupService) memberOf(ctx context.Context, auth GroupAuth) (*models.GroupRecord, error) {
	rec, err := s.repo.Get(ctx, auth.PublicKey)
	if err != nil {
		return nil, err
	}
	if _, m := findMember(rec.Group, auth.Member.EncryptedUID); m == nil {
		return nil, fmt.Errorf("%w: not a member", ErrForbidden)
	}
	return rec, nil
}

func (s *GroupService) Get(ctx context.Context, auth GroupAuth) (*pb.Group, error) {
	rec, err := s.memberOf(ctx, auth)
	if err != nil {
		return nil, err
	}
	return rec.Group, nil
}

// Log returns the signed changes from revision from on.
func (s *GroupService) Log(ctx context.Context, auth GroupAuth, from uint32) (*pb.GroupChanges, error) {
	rec, err := s.memberOf(ctx, auth)
	if err != nil {
		return nil, err
	}
	if from == 0 || from > rec.Group.Revision+1 {
		return nil, fmt.Errorf("%w: no change log from revision %d", ErrBadRequest, from)
	}

	out := &pb.GroupChanges{}
	for i, rev := range rec.Revisions {
		if rev >= from {
			out.GroupChanges = append(out.GroupChanges, &pb.GroupChangeState{GroupChange: rec.Changes[i]})
		}
	}
	return out, nil
}

func allowed(access uint32, role uint32) bool {
	switch access {
	case pb.AccessAny, pb.AccessMember:
		return true
	case pb.AccessAdministrator:
		return role == pb.RoleAdministrator
	}
	return false
}

// authorize checks the requester's role against the group access rules.
// Members may always remove themselves.
func authorize(g *pb.Group, requester *pb.Member, a *pb.GroupChangeActions) error {
	admin := requester.Role == pb.RoleAdministrator
	access := g.AccessControl
	if access == nil {
		access = &pb.AccessControl{Attributes: pb.AccessAdministrator, Members: pb.AccessAdministrator}
	}

	onlySelfRemoval := len(a.AddMembers) == 0
	for _, d := range a.DeleteMembers {
		if !bytes.Equal(d.DeletedUserID, requester.UserID) {
			onlySelfRemoval = false
		}
	}
	if (len(a.AddMembers) > 0 || len(a.DeleteMembers) > 0) && !onlySelfRemoval && !allowed(access.Members, requester.Role) {
		return fmt.Errorf("%w: membership changes need %d", ErrForbidden, access.Members)
	}
	if (a.ModifyTitle != nil || a.ModifyAvatar != nil || a.ModifyDisappearingMessagesTimer != nil) && !allowed(access.Attributes, requester.Role) {
		return fmt.Errorf("%w: attribute changes need %d", ErrForbidden, access.Attributes)
	}
	if (len(a.ModifyMemberRoles) > 0 || a.ModifyAttributesAccess != nil || a.ModifyMemberAccess != nil) && !admin {
		return fmt.Errorf("%w: administrator required", ErrForbidden)
	}
	return nil
}

// apply mutates g by a in the order deletes, role changes, additions,
// attributes. It matches the order clients replay changes in.
func (s *GroupService) apply(g *pb.Group, a *pb.GroupChangeActions) error {
	for _, d := range a.DeleteMembers {
		i, m := findMember(g, d.DeletedUserID)
		if m == nil {
			return fmt.Errorf("%w: deleting a non-member", ErrBadRequest)
		}
		g.Members = append(g.Members[:i], g.Members[i+1:]...)
	}
	for _, rc := range a.ModifyMemberRoles {
		_, m := findMember(g, rc.UserID)
		if m == nil || !validRole(rc.Role) {
			return fmt.Errorf("%w: invalid role change", ErrBadRequest)
		}
		m.Role = rc.Role
	}
	for _, add := range a.AddMembers {
		if add.Added == nil {
			return fmt.Errorf("%w: empty add action", ErrBadRequest)
		}
		if _, m := findMember(g, add.Added.UserID); m != nil {
			return fmt.Errorf("%w: already a member", ErrBadRequest)
		}
		if err := s.admitMember(add.Added, a.Revision); err != nil {
			return err
		}
		g.Members = append(g.Members, add.Added)
	}
	if a.ModifyTitle != nil {
		g.Title = a.ModifyTitle.Title
	}
	if a.ModifyAvatar != nil {
		g.Avatar = a.ModifyAvatar.Avatar
	}
	if a.ModifyDisappearingMessagesTimer != nil {
		g.DisappearingMessagesTimer = a.ModifyDisappearingMessagesTimer.Timer
	}
	if g.AccessControl == nil {
		g.AccessControl = &pb.AccessControl{}
	}
	if a.ModifyAttributesAccess != nil {
		if !validAccess(a.ModifyAttributesAccess.Access) {
			return fmt.Errorf("%w: invalid access", ErrBadRequest)
		}
		g.AccessControl.Attributes = a.ModifyAttributesAccess.Access
	}
	if a.ModifyMemberAccess != nil {
		if !validAccess(a.ModifyMemberAccess.Access) {
			return fmt.Errorf("%w: invalid access", ErrBadRequest)
		}
		g.AccessControl.Members = a.ModifyMemberAccess.Access
	}
	g.Revision = a.Revision
	return nil
}

// Modify applies a as the next revision and returns the signed change. A
// change against any other revision gives *ConflictError.
func (s *GroupService) Modify(ctx context.Context, auth GroupAuth, a *pb.GroupChangeActions) (*pb.GroupChange, error) {
	if a.Empty() {
		return nil, fmt.Errorf("%w: no actions", ErrBadRequest)
	}

	var change *pb.GroupChange
	err := s.repo.Update(ctx, auth.PublicKey, func(rec *models.GroupRecord) error {
		_, requester := findMember(rec.Group, auth.Member.EncryptedUID)
		if requester == nil {
			return fmt.Errorf("%w: not a member", ErrForbidden)
		}
		if a.Revision != rec.Group.Revision+1 {
			return &ConflictError{Current: rec.Group}
		}
		if err := authorize(rec.Group, requester, a); err != nil {
			return err
		}
		if err := s.apply(rec.Group, a); err != nil {
			return err
		}

		a.SourceUUID = auth.Member.EncryptedUID
		actions := a.Marshal()
		change = &pb.GroupChange{Actions: actions, ServerSignature: s.server.SignChangeActions(actions)}
		rec.Changes = append(rec.Changes, change)
		rec.Revisions = append(rec.Revisions, a.Revision)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "group modified", "group", auth.PublicKey.Identifier().String(), "revision", a.Revision)
	return change, nil
}

// AvatarForm returns an upload target for a new avatar of the group.
func (s *GroupService) AvatarForm(ctx context.Context, auth GroupAuth) (*pb.AvatarUploadAttributes, error) {
	if _, err := s.memberOf(ctx, auth); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("groups/%s/%s", auth.PublicKey.Identifier(), uuid.New())
	url, err := s.presigner.PresignPut(ctx, key)
	if err != nil {
		return nil, err
	}
	return &pb.AvatarUploadAttributes{Key: key, URL: url}, nil
}
