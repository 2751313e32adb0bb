// Package models defines the client-side group models: local state,
// decrypted snapshots and change sets.
package models

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

var (
	// ErrRevisionMismatch is returned when a change does not follow the
	// current revision. It guards against replays and out-of-order applies.
	ErrRevisionMismatch = errors.New("change revision does not follow current revision")
	// ErrInvalidChange is returned when a change does not fit the state it
	// is applied to.
	ErrInvalidChange = errors.New("change does not apply to group state")
)

type Role uint32

const (
	RoleUnknown Role = iota
	RoleDefault
	RoleAdministrator
)

func (r Role) String() string {
	switch r {
	case RoleDefault:
		return "member"
	case RoleAdministrator:
		return "admin"
	default:
		return "unknown"
	}
}

type AccessRequired uint32

const (
	AccessUnknown AccessRequired = iota
	AccessAny
	AccessMember
	AccessAdministrator
	AccessUnsatisfiable
)

type AccessControl struct {
	Attributes AccessRequired
	Members    AccessRequired
}

// DefaultAccessControl lets members edit attributes and admins edit membership.
func DefaultAccessControl() AccessControl {
	return AccessControl{Attributes: AccessMember, Members: AccessAdministrator}
}

type Member struct {
	UID              uuid.UUID
	Role             Role
	ProfileKey       zkgroup.ProfileKey
	JoinedAtRevision uint32
}

// GroupState is the locally stored, decrypted group.
type GroupState struct {
	MasterKey                 zkgroup.GroupMasterKey
	Revision                  uint32
	Title                     string
	Avatar                    string
	DisappearingMessagesTimer uint32
	Access                    AccessControl
	Members                   []Member
}

func (g GroupState) Member(uid uuid.UUID) (Member, bool) {
	i := slices.IndexFunc(g.Members, func(m Member) bool { return m.UID == uid })
	if i < 0 {
		return Member{}, false
	}
	return g.Members[i], true
}

// Clone returns a copy that shares no slices with g.
func (g GroupState) Clone() GroupState {
	g.Members = slices.Clone(g.Members)
	return g
}

// GroupV2Snapshot is the decrypted full group state as returned by the
// server.
type GroupV2Snapshot struct {
	Revision                  uint32
	Title                     string
	Avatar                    string
	DisappearingMessagesTimer uint32
	Access                    AccessControl
	Members                   []Member
}

// State turns a snapshot into local state for the group with master key mk.
func (s GroupV2Snapshot) State(mk zkgroup.GroupMasterKey) GroupState {
	return GroupState{
		MasterKey:                 mk,
		Revision:                  s.Revision,
		Title:                     s.Title,
		Avatar:                    s.Avatar,
		DisappearingMessagesTimer: s.DisappearingMessagesTimer,
		Access:                    s.Access,
		Members:                   slices.Clone(s.Members),
	}
}

type RoleChange struct {
	UID  uuid.UUID
	Role Role
}

// ChangeActions is the decrypted form of one revision's modifications.
// Nil pointers mean "unchanged".
type ChangeActions struct {
	SourceUID                       uuid.UUID
	Revision                        uint32
	AddMembers                      []Member
	DeleteMembers                   []uuid.UUID
	ModifyMemberRoles               []RoleChange
	ModifyTitle                     *string
	ModifyAvatar                    *string
	ModifyDisappearingMessagesTimer *uint32
	ModifyAttributesAccess          *AccessRequired
	ModifyMemberAccess              *AccessRequired
}

func (a ChangeActions) Empty() bool {
	return len(a.AddMembers) == 0 && len(a.DeleteMembers) == 0 && len(a.ModifyMemberRoles) == 0 &&
		a.ModifyTitle == nil && a.ModifyAvatar == nil && a.ModifyDisappearingMessagesTimer == nil &&
		a.ModifyAttributesAccess == nil && a.ModifyMemberAccess == nil
}

// GroupV2Change is one confirmed change from the change log.
type GroupV2Change struct {
	Revision uint32
	Actions  ChangeActions
	// Signed is the serialized, server-signed change as received.
	Signed []byte
}

// UpdatedV2Group is the result of a successful update.
type UpdatedV2Group struct {
	Group GroupState
	// ChangeActionsProto is the confirmed, server-signed change payload.
	ChangeActionsProto []byte
}

type ProfileKeyCredentialMap map[uuid.UUID]zkgroup.ProfileKeyCredential

// AuthCredentialMap maps redemption day to the credential for that day.
type AuthCredentialMap map[uint32]zkgroup.AuthCredential

// BuildChangeActions diffs two states of the same group into the actions
// that turn old into updated, attributed to source and numbered
// old.Revision+1. Added members carry the role and profile key found in
// updated.
func BuildChangeActions(source uuid.UUID, old, updated GroupState) ChangeActions {
	a := ChangeActions{SourceUID: source, Revision: old.Revision + 1}

	for _, m := range updated.Members {
		prev, ok := old.Member(m.UID)
		switch {
		case !ok:
			a.AddMembers = append(a.AddMembers, Member{UID: m.UID, Role: m.Role, ProfileKey: m.ProfileKey})
		case prev.Role != m.Role:
			a.ModifyMemberRoles = append(a.ModifyMemberRoles, RoleChange{UID: m.UID, Role: m.Role})
		}
	}
	for _, m := range old.Members {
		if _, ok := updated.Member(m.UID); !ok {
			a.DeleteMembers = append(a.DeleteMembers, m.UID)
		}
	}

	if old.Title != updated.Title {
		a.ModifyTitle = &updated.Title
	}
	if old.Avatar != updated.Avatar {
		a.ModifyAvatar = &updated.Avatar
	}
	if old.DisappearingMessagesTimer != updated.DisappearingMessagesTimer {
		a.ModifyDisappearingMessagesTimer = &updated.DisappearingMessagesTimer
	}
	if old.Access.Attributes != updated.Access.Attributes {
		a.ModifyAttributesAccess = &updated.Access.Attributes
	}
	if old.Access.Members != updated.Access.Members {
		a.ModifyMemberAccess = &updated.Access.Members
	}
	return a
}

// Apply returns the state after a. The change must carry revision
// g.Revision+1.
func (g GroupState) Apply(a ChangeActions) (GroupState, error) {
	if a.Revision != g.Revision+1 {
		return GroupState{}, fmt.Errorf("%w: have %d, change is %d", ErrRevisionMismatch, g.Revision, a.Revision)
	}

	next := g.Clone()
	next.Revision = a.Revision

	for _, uid := range a.DeleteMembers {
		i := slices.IndexFunc(next.Members, func(m Member) bool { return m.UID == uid })
		if i < 0 {
			return GroupState{}, fmt.Errorf("%w: delete of non-member %s", ErrInvalidChange, uid)
		}
		next.Members = slices.Delete(next.Members, i, i+1)
	}
	for _, rc := range a.ModifyMemberRoles {
		i := slices.IndexFunc(next.Members, func(m Member) bool { return m.UID == rc.UID })
		if i < 0 {
			return GroupState{}, fmt.Errorf("%w: role change of non-member %s", ErrInvalidChange, rc.UID)
		}
		next.Members[i].Role = rc.Role
	}
	for _, m := range a.AddMembers {
		if _, ok := next.Member(m.UID); ok {
			return GroupState{}, fmt.Errorf("%w: %s is already a member", ErrInvalidChange, m.UID)
		}
		m.JoinedAtRevision = a.Revision
		next.Members = append(next.Members, m)
	}

	if a.ModifyTitle != nil {
		next.Title = *a.ModifyTitle
	}
	if a.ModifyAvatar != nil {
		next.Avatar = *a.ModifyAvatar
	}
	if a.ModifyDisappearingMessagesTimer != nil {
		next.DisappearingMessagesTimer = *a.ModifyDisappearingMessagesTimer
	}
	if a.ModifyAttributesAccess != nil {
		next.Access.Attributes = *a.ModifyAttributesAccess
	}
	if a.ModifyMemberAccess != nil {
		next.Access.Members = *a.ModifyMemberAccess
	}
	return next, nil
}
