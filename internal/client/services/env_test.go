package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/codec"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/server/httpapi"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/groups"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	srv "github.com/dmitrijs2005/gophgroups/internal/server/services"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// loopbackClient serves the account API straight from the reference
// account service.
type loopbackClient struct {
	accounts *srv.AccountService

	mu           sync.Mutex
	uid          uuid.UUID
	verifier     []byte
	profileCalls map[uuid.UUID]int
}

var _ client.Client = (*loopbackClient)(nil)

func (c *loopbackClient) account() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uid, c.uid != uuid.Nil
}

func (c *loopbackClient) Close() error { return nil }

func (c *loopbackClient) Register(ctx context.Context, uid uuid.UUID, salt []byte, verifier []byte) error {
	return c.accounts.Register(ctx, uid, salt, verifier)
}

func (c *loopbackClient) GetSalt(ctx context.Context, uid uuid.UUID) ([]byte, error) {
	return c.accounts.GetSalt(ctx, uid)
}

func (c *loopbackClient) Login(ctx context.Context, uid uuid.UUID, verifier []byte) error {
	if _, err := c.accounts.Authenticate(ctx, uid, verifier); err != nil {
		return err
	}
	c.SetAccount(uid, verifier)
	return nil
}

func (c *loopbackClient) SetAccount(uid uuid.UUID, verifier []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uid = uid
	c.verifier = append([]byte(nil), verifier...)
}

func (c *loopbackClient) Ping(ctx context.Context) error { return nil }

func (c *loopbackClient) SetProfile(ctx context.Context, version string, commitment []byte, name string) error {
	uid, ok := c.account()
	if !ok {
		return common.ErrUnauthorized
	}
	return c.accounts.SetProfile(ctx, uid, version, commitment, []byte(name))
}

func (c *loopbackClient) GetProfile(ctx context.Context, uid uuid.UUID, version string, credentialRequest []byte) (*client.Profile, error) {
	if _, ok := c.account(); !ok {
		return nil, common.ErrUnauthorized
	}
	c.mu.Lock()
	if c.profileCalls == nil {
		c.profileCalls = map[uuid.UUID]int{}
	}
	c.profileCalls[uid]++
	c.mu.Unlock()

	name, cred, err := c.accounts.GetProfile(ctx, uid, version, credentialRequest)
	if err != nil {
		return nil, err
	}
	return &client.Profile{Name: string(name), Credential: cred}, nil
}

func (c *loopbackClient) totalProfileCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.profileCalls {
		n += v
	}
	return n
}

// world is one reference server shared by several devices.
type world struct {
	server   zkgroup.ServerSecretParams
	accounts *srv.AccountService
	avatars  *srv.LocalAvatarStore
	http     *httptest.Server

	mu    sync.Mutex
	paths []string
}

func newWorld(t *testing.T) *world {
	t.Helper()
	server, err := zkgroup.GenerateServerSecretParams()
	require.NoError(t, err)

	w := &world{server: server}
	mux := http.NewServeMux()
	w.http = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		w.paths = append(w.paths, r.Method+" "+r.URL.Path)
		w.mu.Unlock()
		mux.ServeHTTP(rw, r)
	}))
	t.Cleanup(w.http.Close)

	store := srv.NewLocalAvatarStore(w.http.URL, time.Minute, fixedNow)
	w.avatars = store
	w.accounts = srv.NewAccountService(accounts.NewInMemoryRepository(), server, 24*time.Hour, fixedNow)
	groupsSvc := srv.NewGroupService(groups.NewInMemoryRepository(), server, store, fixedNow, logging.Nop{})
	mux.Handle("/", httpapi.NewRouter(httpapi.NewHandler(w.accounts, groupsSvc, store, logging.Nop{})))
	return w
}

func (w *world) requests() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.paths...)
}

func (w *world) resetRequests() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paths = nil
}

// device is one client installation with its own database.
type device struct {
	repos      *client.Repositories
	client     *loopbackClient
	exec       client.Executor
	auth       AuthService
	recipients RecipientService
	creds      AuthCredentialService
	profiles   ProfileCredentialService
	groups     GroupService
	avatars    AvatarService
}

func (w *world) newDevice(t *testing.T) *device {
	t.Helper()
	ctx := context.Background()

	repos, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	exec, err := client.NewHTTPExecutor(w.http.URL, w.http.Client(), client.RetryPolicy{}, logging.Nop{})
	require.NoError(t, err)

	public := w.server.PublicParams()
	lc := &loopbackClient{accounts: w.accounts}
	d := &device{
		repos:      repos,
		client:     lc,
		exec:       exec,
		auth:       NewAuthService(lc, repos.DB),
		recipients: NewRecipientService(repos.DB),
	}
	d.creds, err = NewAuthCredentialService(exec, public, 16, fixedNow, logging.Nop{})
	require.NoError(t, err)
	fetcher := NewProfileFetcher(lc, repos.Profiles, public, fixedNow)
	d.profiles = NewProfileCredentialService(repos.Profiles, fetcher, d.recipients, fixedNow, logging.Nop{})

	c := codec.New(public, fixedNow)
	d.groups = NewGroupService(GroupDeps{
		Identity:    d.auth,
		Resolver:    d.recipients,
		Profiles:    d.profiles,
		Credentials: d.creds,
		Store:       repos.Groups,
		Codec:       c,
		Executor:    exec,
		Logger:      logging.Nop{},
	})
	d.avatars = NewAvatarService(d.auth, d.creds, c, exec, w.http.Client(), logging.Nop{})
	return d
}

// registeredDevice is a device with a fresh account.
func (w *world) registeredDevice(t *testing.T, name string) (*device, Identity) {
	t.Helper()
	d := w.newDevice(t)
	_, err := d.auth.Register(context.Background(), []byte(name+"-password"), name)
	require.NoError(t, err)
	self, err := d.auth.LocalIdentity(context.Background())
	require.NoError(t, err)
	return d, self
}

// addContact makes other known to d, phone and profile key included.
func (d *device) addContact(t *testing.T, phone string, other Identity) {
	t.Helper()
	pk := other.ProfileKey
	c := Contact{ProfileKey: &pk}
	c.UID, c.Phone, c.Name = other.UID, phone, phone
	require.NoError(t, d.recipients.AddContact(context.Background(), c))
}
