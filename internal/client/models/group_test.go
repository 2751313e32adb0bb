package models

import (
	"testing"

	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(t *testing.T) (GroupState, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()
	mk, err := zkgroup.GenerateGroupMasterKey()
	require.NoError(t, err)

	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	return GroupState{
		MasterKey: mk,
		Revision:  3,
		Title:     "climbing",
		Access:    DefaultAccessControl(),
		Members: []Member{
			{UID: alice, Role: RoleAdministrator},
			{UID: bob, Role: RoleDefault, JoinedAtRevision: 1},
			{UID: carol, Role: RoleDefault, JoinedAtRevision: 2},
		},
	}, alice, bob, carol
}

func TestBuildChangeActions(t *testing.T) {
	old, alice, bob, carol := sampleState(t)
	dave := uuid.New()

	updated := old.Clone()
	updated.Title = "bouldering"
	updated.DisappearingMessagesTimer = 3600
	updated.Members = []Member{
		{UID: alice, Role: RoleAdministrator},
		{UID: bob, Role: RoleAdministrator},
		{UID: dave, Role: RoleDefault},
	}

	a := BuildChangeActions(alice, old, updated)

	title := "bouldering"
	timer := uint32(3600)
	want := ChangeActions{
		SourceUID:                       alice,
		Revision:                        4,
		AddMembers:                      []Member{{UID: dave, Role: RoleDefault}},
		DeleteMembers:                   []uuid.UUID{carol},
		ModifyMemberRoles:               []RoleChange{{UID: bob, Role: RoleAdministrator}},
		ModifyTitle:                     &title,
		ModifyDisappearingMessagesTimer: &timer,
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("BuildChangeActions mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildChangeActions_NoChanges(t *testing.T) {
	old, alice, _, _ := sampleState(t)
	a := BuildChangeActions(alice, old, old.Clone())
	assert.True(t, a.Empty())
	assert.Equal(t, uint32(4), a.Revision)
}

func TestApply_RoundTripsDiff(t *testing.T) {
	old, alice, _, carol := sampleState(t)
	pk, err := zkgroup.GenerateProfileKey()
	require.NoError(t, err)

	updated := old.Clone()
	updated.Avatar = "groups/avatar-key"
	updated.Access.Members = AccessMember
	updated.Members = append(updated.Members[:2], Member{UID: uuid.New(), Role: RoleDefault, ProfileKey: pk})
	updated.Members[1].Role = RoleAdministrator

	got, err := old.Apply(BuildChangeActions(alice, old, updated))
	require.NoError(t, err)

	updated.Revision = 4
	updated.Members[2].JoinedAtRevision = 4
	if diff := cmp.Diff(updated, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
	_, ok := got.Member(carol)
	assert.False(t, ok)

	// The receiver is left untouched.
	assert.Equal(t, uint32(3), old.Revision)
	assert.Len(t, old.Members, 3)
	assert.Equal(t, RoleDefault, old.Members[1].Role)
}

func TestApply_RevisionGuard(t *testing.T) {
	g, alice, _, _ := sampleState(t)
	title := "x"

	for _, rev := range []uint32{0, 3, 5, 100} {
		_, err := g.Apply(ChangeActions{SourceUID: alice, Revision: rev, ModifyTitle: &title})
		require.ErrorIs(t, err, ErrRevisionMismatch, "revision %d", rev)
	}
}

func TestApply_InvalidChanges(t *testing.T) {
	g, alice, bob, _ := sampleState(t)
	stranger := uuid.New()

	tests := []struct {
		name string
		a    ChangeActions
	}{
		{"delete non-member", ChangeActions{Revision: 4, DeleteMembers: []uuid.UUID{stranger}}},
		{"role of non-member", ChangeActions{Revision: 4, ModifyMemberRoles: []RoleChange{{UID: stranger, Role: RoleDefault}}}},
		{"add existing member", ChangeActions{Revision: 4, AddMembers: []Member{{UID: bob, Role: RoleDefault}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.SourceUID = alice
			_, err := g.Apply(tt.a)
			require.ErrorIs(t, err, ErrInvalidChange)
		})
	}
}

func TestSnapshotState(t *testing.T) {
	g, _, _, _ := sampleState(t)
	s := GroupV2Snapshot{
		Revision: g.Revision,
		Title:    g.Title,
		Access:   g.Access,
		Members:  g.Members,
	}
	got := s.State(g.MasterKey)
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
	got.Members[0].Role = RoleDefault
	assert.Equal(t, RoleAdministrator, s.Members[0].Role)
}

func TestAddress(t *testing.T) {
	uid := uuid.New()
	assert.True(t, Address{UID: uid}.HasUID())
	assert.Equal(t, uid.String(), Address{UID: uid, Phone: "+100"}.String())
	assert.False(t, Address{Phone: "+100"}.HasUID())
	assert.Equal(t, "+100", Address{Phone: "+100"}.String())
	assert.Equal(t, "admin", RoleAdministrator.String())
}
