package httpapi

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/groups"
	"github.com/dmitrijs2005/gophgroups/internal/server/services"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type testServer struct {
	*httptest.Server
	server   zkgroup.ServerSecretParams
	accounts *services.AccountService
	params   zkgroup.GroupSecretParams
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	server, err := zkgroup.GenerateServerSecretParams()
	require.NoError(t, err)
	mk, err := zkgroup.GenerateGroupMasterKey()
	require.NoError(t, err)
	params, err := zkgroup.DeriveGroupSecretParams(mk)
	require.NoError(t, err)

	ts := &testServer{server: server, params: params}
	mux := http.NewServeMux()
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	store := services.NewLocalAvatarStore(ts.URL, time.Minute, fixedNow)
	ts.accounts = services.NewAccountService(accounts.NewInMemoryRepository(), server, 24*time.Hour, fixedNow)
	grp := services.NewGroupService(groups.NewInMemoryRepository(), server, store, fixedNow, logging.Nop{})
	mux.Handle("/", NewRouter(NewHandler(ts.accounts, grp, store, logging.Nop{})))
	return ts
}

func (ts *testServer) groupHeader(t *testing.T, uid uuid.UUID) string {
	t.Helper()
	day := timex.RedemptionDay(testNow)
	cred, err := zkgroup.ReceiveAuthCredential(ts.server.PublicParams(), uid, day, ts.server.IssueAuthCredential(uid, day))
	require.NoError(t, err)
	pub := ts.params.PublicParams()
	return cryptox.BasicAuth(hex.EncodeToString(pub[:]), zkgroup.CreateAuthCredentialPresentation(ts.params, cred))
}

func (ts *testServer) member(t *testing.T, uid uuid.UUID, role uint32) *pb.Member {
	t.Helper()
	pk, err := zkgroup.GenerateProfileKey()
	require.NoError(t, err)
	reqCtx := zkgroup.NewProfileKeyCredentialRequestContext(uid, pk)
	resp, err := ts.server.IssueProfileKeyCredential(reqCtx.Request(), uid, pk.Commitment(uid), testNow.Add(time.Hour))
	require.NoError(t, err)
	cred, err := zkgroup.ReceiveProfileKeyCredential(ts.server.PublicParams(), reqCtx, resp, testNow)
	require.NoError(t, err)
	return &pb.Member{
		UserID:       ts.params.EncryptUID(uid),
		Role:         role,
		ProfileKey:   ts.params.EncryptProfileKey(pk, uid),
		Presentation: zkgroup.CreateProfileKeyCredentialPresentation(ts.params, cred),
	}
}

func (ts *testServer) do(t *testing.T, method, path, auth string, body []byte) (int, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set(common.AuthorizationHeaderName, auth)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestAuthCredentials(t *testing.T) {
	ts := newTestServer(t)
	uid := uuid.New()
	verifier := []byte("verifier-bytes")
	require.NoError(t, ts.accounts.Register(context.Background(), uid, make([]byte, cryptox.SaltSize), verifier))

	today := timex.RedemptionDay(testNow)
	path := "/v1/certificate/group/" + itoa(today) + "/" + itoa(today+common.RedemptionWindowDays)

	code, body := ts.do(t, http.MethodGet, path, cryptox.BasicAuth(uid.String(), verifier), nil)
	require.Equal(t, http.StatusOK, code)

	var resp struct {
		Credentials []struct {
			Credential     []byte `json:"credential"`
			RedemptionTime uint32 `json:"redemptionTime"`
		} `json:"credentials"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Credentials, common.RedemptionWindowDays+1)
	for i, c := range resp.Credentials {
		assert.Equal(t, today+uint32(i), c.RedemptionTime)
		_, err := zkgroup.ReceiveAuthCredential(ts.server.PublicParams(), uid, c.RedemptionTime, c.Credential)
		require.NoError(t, err)
	}

	code, _ = ts.do(t, http.MethodGet, path, cryptox.BasicAuth(uid.String(), []byte("wrong")), nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(t, http.MethodGet, "/v1/certificate/group/"+itoa(today)+"/"+itoa(today+30), cryptox.BasicAuth(uid.String(), verifier), nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(t, http.MethodGet, "/v1/certificate/group/x/y", cryptox.BasicAuth(uid.String(), verifier), nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGroupRoutes(t *testing.T) {
	ts := newTestServer(t)
	alice, bob := uuid.New(), uuid.New()
	aliceAuth := ts.groupHeader(t, alice)
	pub := ts.params.PublicParams()

	g := &pb.Group{
		PublicKey:     pub[:],
		Title:         []byte("t"),
		AccessControl: &pb.AccessControl{Attributes: pb.AccessMember, Members: pb.AccessAdministrator},
		Members:       []*pb.Member{ts.member(t, alice, pb.RoleAdministrator)},
	}

	code, _ := ts.do(t, http.MethodPut, "/v1/groups/", "", g.Marshal())
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(t, http.MethodPut, "/v1/groups/", aliceAuth, g.Marshal())
	require.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, http.MethodPut, "/v1/groups/", aliceAuth, g.Marshal())
	require.Equal(t, http.StatusConflict, code)
	var current pb.Group
	require.NoError(t, current.Unmarshal(body))
	assert.Len(t, current.Members, 1)

	code, _ = ts.do(t, http.MethodPut, "/v1/groups/", aliceAuth, []byte{0xff})
	assert.Equal(t, http.StatusBadRequest, code)

	add := &pb.GroupChangeActions{Revision: 1, AddMembers: []*pb.AddMemberAction{{Added: ts.member(t, bob, pb.RoleDefault)}}}
	code, body = ts.do(t, http.MethodPatch, "/v1/groups/", aliceAuth, add.Marshal())
	require.Equal(t, http.StatusOK, code)
	var change pb.GroupChange
	require.NoError(t, change.Unmarshal(body))
	require.NoError(t, ts.server.PublicParams().VerifyChangeActions(change.Actions, change.ServerSignature))

	code, body = ts.do(t, http.MethodPatch, "/v1/groups/", aliceAuth, add.Marshal())
	require.Equal(t, http.StatusConflict, code)
	require.NoError(t, current.Unmarshal(body))
	assert.EqualValues(t, 1, current.Revision)

	code, body = ts.do(t, http.MethodGet, "/v1/groups/", ts.groupHeader(t, bob), nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, current.Unmarshal(body))
	assert.Len(t, current.Members, 2)

	code, _ = ts.do(t, http.MethodGet, "/v1/groups/", ts.groupHeader(t, uuid.New()), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = ts.do(t, http.MethodGet, "/v1/groups/logs/1", aliceAuth, nil)
	require.Equal(t, http.StatusOK, code)
	var log pb.GroupChanges
	require.NoError(t, log.Unmarshal(body))
	require.Len(t, log.GroupChanges, 1)
	assert.Equal(t, change.Actions, log.GroupChanges[0].GroupChange.Actions)

	code, _ = ts.do(t, http.MethodGet, "/v1/groups/logs/0", aliceAuth, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = ts.do(t, http.MethodGet, "/v1/groups/logs/abc", aliceAuth, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAvatarRoutes(t *testing.T) {
	ts := newTestServer(t)
	alice := uuid.New()
	auth := ts.groupHeader(t, alice)
	pub := ts.params.PublicParams()
	g := &pb.Group{
		PublicKey:     pub[:],
		AccessControl: &pb.AccessControl{Attributes: pb.AccessMember, Members: pb.AccessMember},
		Members:       []*pb.Member{ts.member(t, alice, pb.RoleAdministrator)},
	}
	code, _ := ts.do(t, http.MethodPut, "/v1/groups/", auth, g.Marshal())
	require.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, http.MethodGet, "/v1/groups/avatar/form", auth, nil)
	require.Equal(t, http.StatusOK, code)
	var attrs pb.AvatarUploadAttributes
	require.NoError(t, attrs.Unmarshal(body))
	require.NotEmpty(t, attrs.Key)

	path := attrs.URL[len(ts.URL):]
	code, _ = ts.do(t, http.MethodPut, path, "", []byte("encrypted avatar"))
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, http.MethodPut, path, "", []byte("again"))
	assert.Equal(t, http.StatusForbidden, code)

	code, body = ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []byte("encrypted avatar"), body)

	code, _ = ts.do(t, http.MethodGet, services.AvatarUploadPath+"missing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func itoa(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
