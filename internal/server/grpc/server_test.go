package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophgroups/internal/server/services"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (pb.AccountServiceClient, zkgroup.ServerSecretParams) {
	t.Helper()
	server, err := zkgroup.GenerateServerSecretParams()
	require.NoError(t, err)
	svc := services.NewAccountService(accounts.NewInMemoryRepository(), server, time.Hour, func() time.Time { return testNow })

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop{}, svc).NewServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec{})),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return pb.NewAccountServiceClient(conn), server
}

func withAuth(uid uuid.UUID, verifier []byte) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AuthorizationHeaderName, cryptox.BasicAuth(uid.String(), verifier))
}

func TestAccountFlow(t *testing.T) {
	c, server := newTestClient(t)
	ctx := context.Background()
	uid := uuid.New()
	salt, verifier := []byte("salt"), []byte("verifier")

	_, err := c.Register(ctx, &pb.RegisterAccountRequest{UUID: uid.String(), Salt: salt, Verifier: verifier})
	require.NoError(t, err)

	_, err = c.Register(ctx, &pb.RegisterAccountRequest{UUID: uid.String(), Salt: salt, Verifier: verifier})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = c.Register(ctx, &pb.RegisterAccountRequest{UUID: "nope", Salt: salt, Verifier: verifier})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	got, err := c.GetSalt(ctx, &pb.GetSaltRequest{UUID: uid.String()})
	require.NoError(t, err)
	assert.Equal(t, salt, got.Salt)

	_, err = c.Login(ctx, &pb.LoginRequest{UUID: uid.String(), VerifierCandidate: verifier})
	require.NoError(t, err)
	_, err = c.Login(ctx, &pb.LoginRequest{UUID: uid.String(), VerifierCandidate: []byte("bad")})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ping, err := c.Ping(ctx, &pb.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", ping.Status)

	pk, err := zkgroup.GenerateProfileKey()
	require.NoError(t, err)
	commitment := pk.Commitment(uid)
	setReq := &pb.SetProfileRequest{Version: pk.Version(uid), Commitment: commitment[:], Name: []byte("alice")}

	_, err = c.SetProfile(ctx, setReq)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = c.SetProfile(withAuth(uid, []byte("bad")), setReq)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = c.SetProfile(withAuth(uid, verifier), setReq)
	require.NoError(t, err)

	reqCtx := zkgroup.NewProfileKeyCredentialRequestContext(uid, pk)
	profile, err := c.GetProfile(withAuth(uid, verifier), &pb.GetProfileRequest{
		UUID:              uid.String(),
		Version:           pk.Version(uid),
		CredentialRequest: reqCtx.Request(),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("alice"), profile.Name)
	cred, err := zkgroup.ReceiveProfileKeyCredential(server.PublicParams(), reqCtx, profile.Credential, testNow)
	require.NoError(t, err)
	assert.Equal(t, uid, cred.UID)

	profile, err = c.GetProfile(withAuth(uid, verifier), &pb.GetProfileRequest{UUID: uid.String(), Version: "stale"})
	require.NoError(t, err)
	assert.Empty(t, profile.Credential)

	_, err = c.GetProfile(withAuth(uid, verifier), &pb.GetProfileRequest{UUID: uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, nil)
	require.Error(t, srv.Run(context.Background()))
}
