package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophgroups/internal/client/config"
	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/recipients"
	"github.com/dmitrijs2005/gophgroups/internal/client/services"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

type fakeAuth struct {
	identity *services.Identity

	registeredName string
	password       string
	loginUID       uuid.UUID
	resumed        int
	loggedOut      bool
	err            error
}

func (f *fakeAuth) LocalIdentity(ctx context.Context) (services.Identity, error) {
	if f.identity == nil {
		return services.Identity{}, common.ErrMissingLocalIdentity
	}
	return *f.identity, nil
}

func (f *fakeAuth) Register(ctx context.Context, password []byte, name string) (uuid.UUID, error) {
	f.registeredName, f.password = name, string(password)
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.identity = &services.Identity{UID: uuid.New()}
	return f.identity.UID, nil
}

func (f *fakeAuth) Login(ctx context.Context, uid uuid.UUID, password []byte) error {
	f.loginUID, f.password = uid, string(password)
	return f.err
}

func (f *fakeAuth) Resume(ctx context.Context) (services.Identity, error) {
	f.resumed++
	return f.LocalIdentity(ctx)
}

func (f *fakeAuth) Ping(ctx context.Context) error { return f.err }

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.loggedOut = true
	f.identity = nil
	return nil
}

func (f *fakeAuth) Close(ctx context.Context) error { return nil }

type fakeRecipients struct {
	byPhone map[string]uuid.UUID
	saved   []services.Contact
}

func (f *fakeRecipients) ResolveAddress(ctx context.Context, addr models.Address) (uuid.UUID, error) {
	if addr.HasUID() {
		return addr.UID, nil
	}
	if uid, ok := f.byPhone[addr.Phone]; ok {
		return uid, nil
	}
	return uuid.Nil, common.ErrorNotFound
}

func (f *fakeRecipients) AddContact(ctx context.Context, c services.Contact) error {
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeRecipients) ListContacts(ctx context.Context) ([]recipients.Recipient, error) {
	out := make([]recipients.Recipient, 0, len(f.saved))
	for _, c := range f.saved {
		out = append(out, c.Recipient)
	}
	return out, nil
}

type fakeProfiles struct {
	ensured []models.Address
}

func (f *fakeProfiles) LoadProfileCredentials(ctx context.Context, uids []uuid.UUID) (models.ProfileKeyCredentialMap, error) {
	return models.ProfileKeyCredentialMap{}, nil
}

func (f *fakeProfiles) EnsureProfileCredentials(ctx context.Context, addrs []models.Address) {
	f.ensured = append(f.ensured, addrs...)
}

type fakeGroups struct {
	states map[zkgroup.GroupMasterKey]models.GroupState
	log    []models.GroupV2Change

	created   []services.NewGroup
	updated   []models.GroupState
	imported  []zkgroup.GroupMasterKey
	refreshed []zkgroup.GroupMasterKey
	logFrom   []uint32
	updateErr error
}

func (f *fakeGroups) CreateGroup(ctx context.Context, g services.NewGroup) (models.GroupState, error) {
	f.created = append(f.created, g)
	mk, err := zkgroup.GenerateGroupMasterKey()
	if err != nil {
		return models.GroupState{}, err
	}
	return models.GroupState{MasterKey: mk, Title: g.Title, Access: models.DefaultAccessControl()}, nil
}

func (f *fakeGroups) UpdateGroup(ctx context.Context, s models.GroupState) (models.UpdatedV2Group, error) {
	f.updated = append(f.updated, s)
	if f.updateErr != nil {
		return models.UpdatedV2Group{}, f.updateErr
	}
	s.Revision++
	return models.UpdatedV2Group{Group: s}, nil
}

func (f *fakeGroups) FetchCurrentGroupState(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupV2Snapshot, error) {
	return models.GroupV2Snapshot{}, nil
}

func (f *fakeGroups) FetchGroupChangeActions(ctx context.Context, mk zkgroup.GroupMasterKey) ([]models.GroupV2Change, error) {
	f.logFrom = append(f.logFrom, f.states[mk].Revision+1)
	return f.log, nil
}

func (f *fakeGroups) FetchChangeLog(ctx context.Context, mk zkgroup.GroupMasterKey, from uint32) ([]models.GroupV2Change, error) {
	f.logFrom = append(f.logFrom, from)
	return f.log, nil
}

func (f *fakeGroups) RefreshGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	f.refreshed = append(f.refreshed, mk)
	return f.GetGroup(ctx, mk)
}

func (f *fakeGroups) ImportGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	f.imported = append(f.imported, mk)
	return models.GroupState{MasterKey: mk}, nil
}

func (f *fakeGroups) ParseChangeActions(mk zkgroup.GroupMasterKey, groupChange []byte) (models.ChangeActions, error) {
	return models.ChangeActions{}, nil
}

func (f *fakeGroups) GetGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	s, ok := f.states[mk]
	if !ok {
		return models.GroupState{}, common.ErrUnknownGroup
	}
	return s, nil
}

func (f *fakeGroups) ListGroups(ctx context.Context) ([]models.GroupState, error) {
	out := make([]models.GroupState, 0, len(f.states))
	for _, s := range f.states {
		out = append(out, s)
	}
	return out, nil
}

type fakeAvatars struct {
	uploaded []byte
	key      string
}

func (f *fakeAvatars) UploadAvatar(ctx context.Context, mk zkgroup.GroupMasterKey, image []byte) (string, error) {
	f.uploaded = image
	return f.key, nil
}

type harness struct {
	auth       *fakeAuth
	recipients *fakeRecipients
	profiles   *fakeProfiles
	groups     *fakeGroups
	avatars    *fakeAvatars
	stdin      string
}

func newHarness() *harness {
	return &harness{
		auth:       &fakeAuth{identity: &services.Identity{UID: uuid.New()}},
		recipients: &fakeRecipients{byPhone: map[string]uuid.UUID{}},
		profiles:   &fakeProfiles{},
		groups:     &fakeGroups{states: map[zkgroup.GroupMasterKey]models.GroupState{}},
		avatars:    &fakeAvatars{key: "avatars/abc"},
	}
}

// exec runs one groupsync command line and returns its output.
func (h *harness) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	root := NewRootCommand(cfg, func(ctx context.Context, c *config.Config) (*App, error) {
		return &App{
			config:     c,
			auth:       h.auth,
			recipients: h.recipients,
			profiles:   h.profiles,
			groups:     h.groups,
			avatars:    h.avatars,
			reader:     bufio.NewReader(strings.NewReader(h.stdin)),
		}, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// addGroup stores a group with the local account as administrator.
func (h *harness) addGroup(t *testing.T, members ...models.Member) models.GroupState {
	t.Helper()
	mk, err := zkgroup.GenerateGroupMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	s := models.GroupState{
		MasterKey: mk,
		Revision:  4,
		Title:     "climbing",
		Access:    models.DefaultAccessControl(),
		Members:   append([]models.Member{{UID: h.auth.identity.UID, Role: models.RoleAdministrator}}, members...),
	}
	h.groups.states[mk] = s
	return s
}
