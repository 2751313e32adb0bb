package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/codec"
	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

// GroupStore is the local group state store.
type GroupStore interface {
	Get(ctx context.Context, id zkgroup.GroupIdentifier) (*models.GroupState, error)
	Save(ctx context.Context, state models.GroupState) error
	List(ctx context.Context) ([]models.GroupState, error)
	Apply(ctx context.Context, id zkgroup.GroupIdentifier, changes ...models.ChangeActions) (models.GroupState, error)
}

// NewGroup describes a group to create. The local account joins as
// administrator and is skipped if listed in Members.
type NewGroup struct {
	Title                     string
	Avatar                    string
	DisappearingMessagesTimer uint32
	Members                   []models.Address
	// Access defaults to models.DefaultAccessControl.
	Access *models.AccessControl
}

// GroupService drives group creation, updates and synchronization against
// the group service.
type GroupService interface {
	CreateGroup(ctx context.Context, g NewGroup) (models.GroupState, error)
	UpdateGroup(ctx context.Context, newState models.GroupState) (models.UpdatedV2Group, error)
	FetchCurrentGroupState(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupV2Snapshot, error)
	FetchGroupChangeActions(ctx context.Context, mk zkgroup.GroupMasterKey) ([]models.GroupV2Change, error)
	FetchChangeLog(ctx context.Context, mk zkgroup.GroupMasterKey, fromRevision uint32) ([]models.GroupV2Change, error)
	RefreshGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error)
	ImportGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error)
	ParseChangeActions(mk zkgroup.GroupMasterKey, groupChange []byte) (models.ChangeActions, error)
	GetGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error)
	ListGroups(ctx context.Context) ([]models.GroupState, error)
}

// GroupDeps are the collaborators of the group service.
type GroupDeps struct {
	Identity    IdentityProvider
	Resolver    AddressResolver
	Profiles    ProfileCredentialService
	Credentials AuthCredentialService
	Store       GroupStore
	Codec       *codec.Codec
	Executor    client.Executor
	Logger      logging.Logger
}

type groupService struct {
	GroupDeps
}

func NewGroupService(deps GroupDeps) GroupService {
	if deps.Logger == nil {
		deps.Logger = logging.Nop{}
	}
	deps.Logger = deps.Logger.With("module", "groups")
	return &groupService{GroupDeps: deps}
}

// DeriveGroupParams derives the secret params of the group behind mk.
func DeriveGroupParams(mk zkgroup.GroupMasterKey) (zkgroup.GroupSecretParams, error) {
	params, err := zkgroup.DeriveGroupSecretParams(mk)
	if err != nil {
		return zkgroup.GroupSecretParams{}, fmt.Errorf("%w: %w", common.ErrInvalidGroupParameters, err)
	}
	return params, nil
}

// GroupIDFromMasterKey returns the identifier the group is stored under.
func GroupIDFromMasterKey(mk zkgroup.GroupMasterKey) (zkgroup.GroupIdentifier, error) {
	params, err := DeriveGroupParams(mk)
	if err != nil {
		return zkgroup.GroupIdentifier{}, err
	}
	return params.Identifier(), nil
}

func (s *groupService) localState(ctx context.Context, id zkgroup.GroupIdentifier) (models.GroupState, error) {
	state, err := s.Store.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return models.GroupState{}, fmt.Errorf("%w: %s", common.ErrUnknownGroup, id)
	}
	if err != nil {
		return models.GroupState{}, err
	}
	return *state, nil
}

// resolveMembers maps addresses to distinct uids other than self.
func (s *groupService) resolveMembers(ctx context.Context, self uuid.UUID, addrs []models.Address) ([]uuid.UUID, error) {
	uids := make([]uuid.UUID, 0, len(addrs))
	for _, addr := range addrs {
		uid, err := s.Resolver.ResolveAddress(ctx, addr)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("%w: cannot resolve member %s", common.ErrPreconditionFailed, addr)
			}
			return nil, err
		}
		if uid != self {
			uids = append(uids, uid)
		}
	}
	return dedupe(uids), nil
}

// CreateGroup creates a group at revision 0 with a fresh master key and
// stores it locally once the service accepted it.
func (s *groupService) CreateGroup(ctx context.Context, g NewGroup) (models.GroupState, error) {
	self, err := s.Identity.LocalIdentity(ctx)
	if err != nil {
		return models.GroupState{}, err
	}

	members, err := s.resolveMembers(ctx, self.UID, g.Members)
	if err != nil {
		return models.GroupState{}, err
	}

	profileCreds, err := s.Profiles.LoadProfileCredentials(ctx, append([]uuid.UUID{self.UID}, members...))
	if err != nil {
		return models.GroupState{}, err
	}

	mk, err := zkgroup.GenerateGroupMasterKey()
	if err != nil {
		return models.GroupState{}, err
	}
	params, err := DeriveGroupParams(mk)
	if err != nil {
		return models.GroupState{}, err
	}

	authCreds, err := s.Credentials.Credentials(ctx, self)
	if err != nil {
		return models.GroupState{}, err
	}

	access := models.DefaultAccessControl()
	if g.Access != nil {
		access = *g.Access
	}
	state := models.GroupState{
		MasterKey:                 mk,
		Title:                     g.Title,
		Avatar:                    g.Avatar,
		DisappearingMessagesTimer: g.DisappearingMessagesTimer,
		Access:                    access,
		Members: []models.Member{{
			UID:        self.UID,
			Role:       models.RoleAdministrator,
			ProfileKey: profileCreds[self.UID].ProfileKey,
		}},
	}
	for _, uid := range members {
		state.Members = append(state.Members, models.Member{
			UID:        uid,
			Role:       models.RoleDefault,
			ProfileKey: profileCreds[uid].ProfileKey,
		})
	}

	req, err := s.Codec.BuildCreateRequest(params, state, profileCreds, authCreds)
	if err != nil {
		return models.GroupState{}, err
	}
	if _, err := s.Executor.Execute(ctx, req); err != nil {
		return models.GroupState{}, fmt.Errorf("create group: %w", err)
	}

	if err := s.Store.Save(ctx, state); err != nil {
		return models.GroupState{}, err
	}
	s.Logger.Info(ctx, "group created", "group", params.Identifier().String(), "members", len(state.Members))
	return state, nil
}

// UpdateGroup sends the difference between the stored state and newState
// as the next revision. A 409 comes back as *client.ConflictError.
func (s *groupService) UpdateGroup(ctx context.Context, newState models.GroupState) (models.UpdatedV2Group, error) {
	params, err := DeriveGroupParams(newState.MasterKey)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}
	id := params.Identifier()

	old, err := s.localState(ctx, id)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}

	self, err := s.Identity.LocalIdentity(ctx)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}
	if _, ok := old.Member(self.UID); !ok {
		return models.UpdatedV2Group{}, fmt.Errorf("%w: not a member of group %s", common.ErrPreconditionFailed, id)
	}

	actions := models.BuildChangeActions(self.UID, old, newState)
	if actions.Empty() {
		return models.UpdatedV2Group{}, fmt.Errorf("%w: no changes", common.ErrPreconditionFailed)
	}

	profileCreds := models.ProfileKeyCredentialMap{}
	if len(actions.AddMembers) > 0 {
		added := make([]uuid.UUID, 0, len(actions.AddMembers))
		for _, m := range actions.AddMembers {
			added = append(added, m.UID)
		}
		if profileCreds, err = s.Profiles.LoadProfileCredentials(ctx, added); err != nil {
			return models.UpdatedV2Group{}, err
		}
		for i := range actions.AddMembers {
			actions.AddMembers[i].ProfileKey = profileCreds[actions.AddMembers[i].UID].ProfileKey
		}
	}

	authCreds, err := s.Credentials.Credentials(ctx, self)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}

	req, err := s.Codec.BuildUpdateRequest(params, actions, profileCreds, authCreds)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}
	resp, err := s.Executor.Execute(ctx, req)
	if err != nil {
		return models.UpdatedV2Group{}, fmt.Errorf("update group: %w", err)
	}

	confirmed, err := s.Codec.ParseAndVerifyChangeActions(params, resp.Body)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}
	state, err := s.Store.Apply(ctx, id, confirmed)
	if err != nil {
		return models.UpdatedV2Group{}, err
	}

	s.Logger.Info(ctx, "group updated", "group", id.String(), "revision", state.Revision)
	return models.UpdatedV2Group{Group: state, ChangeActionsProto: resp.Body}, nil
}

// FetchCurrentGroupState fetches and decrypts the server's group state.
func (s *groupService) FetchCurrentGroupState(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupV2Snapshot, error) {
	params, err := DeriveGroupParams(mk)
	if err != nil {
		return models.GroupV2Snapshot{}, err
	}
	self, err := s.Identity.LocalIdentity(ctx)
	if err != nil {
		return models.GroupV2Snapshot{}, err
	}
	authCreds, err := s.Credentials.Credentials(ctx, self)
	if err != nil {
		return models.GroupV2Snapshot{}, err
	}

	req, err := s.Codec.BuildFetchSnapshotRequest(params, authCreds)
	if err != nil {
		return models.GroupV2Snapshot{}, err
	}
	resp, err := s.Executor.Execute(ctx, req)
	if err != nil {
		return models.GroupV2Snapshot{}, fmt.Errorf("fetch group: %w", err)
	}
	return s.Codec.ParseSnapshot(params, resp.Body)
}

// FetchGroupChangeActions returns the changes after the stored revision.
func (s *groupService) FetchGroupChangeActions(ctx context.Context, mk zkgroup.GroupMasterKey) ([]models.GroupV2Change, error) {
	id, err := GroupIDFromMasterKey(mk)
	if err != nil {
		return nil, err
	}
	state, err := s.localState(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.FetchChangeLog(ctx, mk, state.Revision+1)
}

// FetchChangeLog returns the verified changes from fromRevision on, in
// ascending order.
func (s *groupService) FetchChangeLog(ctx context.Context, mk zkgroup.GroupMasterKey, fromRevision uint32) ([]models.GroupV2Change, error) {
	if fromRevision == 0 {
		return nil, fmt.Errorf("%w: change log starts at revision 1", common.ErrPreconditionFailed)
	}
	params, err := DeriveGroupParams(mk)
	if err != nil {
		return nil, err
	}
	self, err := s.Identity.LocalIdentity(ctx)
	if err != nil {
		return nil, err
	}
	authCreds, err := s.Credentials.Credentials(ctx, self)
	if err != nil {
		return nil, err
	}

	req, err := s.Codec.BuildFetchChangeLogRequest(params, authCreds, fromRevision)
	if err != nil {
		return nil, err
	}
	resp, err := s.Executor.Execute(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch change log: %w", err)
	}
	changes, err := s.Codec.ParseChangeLog(params, resp.Body)
	if err != nil {
		return nil, err
	}

	s.Logger.Debug(ctx, "change log fetched", "group", params.Identifier().String(), "from_revision", fromRevision, "changes", len(changes))
	return changes, nil
}

// RefreshGroup brings the stored state up to the server's revision. A
// group stored at revision 0 is replaced by a snapshot; otherwise the
// change log is applied in order.
func (s *groupService) RefreshGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	id, err := GroupIDFromMasterKey(mk)
	if err != nil {
		return models.GroupState{}, err
	}
	local, err := s.localState(ctx, id)
	if err != nil {
		return models.GroupState{}, err
	}

	if local.Revision == 0 {
		return s.replaceWithSnapshot(ctx, mk)
	}

	changes, err := s.FetchChangeLog(ctx, mk, local.Revision+1)
	if err != nil {
		return models.GroupState{}, err
	}
	if len(changes) == 0 {
		return local, nil
	}
	actions := make([]models.ChangeActions, 0, len(changes))
	for _, c := range changes {
		actions = append(actions, c.Actions)
	}
	state, err := s.Store.Apply(ctx, id, actions...)
	if err != nil {
		return models.GroupState{}, err
	}

	s.Logger.Info(ctx, "group refreshed", "group", id.String(), "revision", state.Revision)
	return state, nil
}

// ImportGroup starts tracking a group the local account was added to
// elsewhere. The master key arrives out of band.
func (s *groupService) ImportGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	id, err := GroupIDFromMasterKey(mk)
	if err != nil {
		return models.GroupState{}, err
	}
	if _, err := s.localState(ctx, id); err == nil {
		return s.RefreshGroup(ctx, mk)
	} else if !errors.Is(err, common.ErrUnknownGroup) {
		return models.GroupState{}, err
	}
	return s.replaceWithSnapshot(ctx, mk)
}

func (s *groupService) replaceWithSnapshot(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	snapshot, err := s.FetchCurrentGroupState(ctx, mk)
	if err != nil {
		return models.GroupState{}, err
	}
	state := snapshot.State(mk)
	if err := s.Store.Save(ctx, state); err != nil {
		return models.GroupState{}, err
	}
	s.Logger.Info(ctx, "group state replaced by snapshot", "revision", state.Revision)
	return state, nil
}

// ParseChangeActions verifies and decrypts a change payload received out
// of band, such as one embedded in a message.
func (s *groupService) ParseChangeActions(mk zkgroup.GroupMasterKey, groupChange []byte) (models.ChangeActions, error) {
	params, err := DeriveGroupParams(mk)
	if err != nil {
		return models.ChangeActions{}, err
	}
	return s.Codec.ParseAndVerifyChangeActions(params, groupChange)
}

func (s *groupService) GetGroup(ctx context.Context, mk zkgroup.GroupMasterKey) (models.GroupState, error) {
	id, err := GroupIDFromMasterKey(mk)
	if err != nil {
		return models.GroupState{}, err
	}
	return s.localState(ctx, id)
}

func (s *groupService) ListGroups(ctx context.Context) ([]models.GroupState, error) {
	return s.Store.List(ctx)
}
