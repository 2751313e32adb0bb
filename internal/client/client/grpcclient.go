package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AccountServiceClient

	mu       sync.RWMutex
	uid      uuid.UUID
	verifier []byte
}

func withAccountAuth(ctx context.Context, header string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, header)
	return metadata.NewOutgoingContext(ctx, md)
}

// accountAuthInterceptor attaches account Basic auth once the client knows
// its account.
func (s *GRPCClient) accountAuthInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if header := s.authorization(); header != "" {
		ctx = withAccountAuth(ctx, header)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) authorization() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.uid == uuid.Nil {
		return ""
	}
	return cryptox.BasicAuth(s.uid.String(), s.verifier)
}

// SetAccount makes subsequent calls authenticate as uid.
func (s *GRPCClient) SetAccount(uid uuid.UUID, verifier []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = uid
	s.verifier = append([]byte(nil), verifier...)
}

func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accountAuthInterceptor),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec{})),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAccountServiceClient(conn)
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, uid uuid.UUID, salt []byte, verifier []byte) error {
	req := &pb.RegisterAccountRequest{UUID: uid.String(), Salt: salt, Verifier: verifier}
	if _, err := s.client.Register(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, uid uuid.UUID) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	resp, err := s.client.GetSalt(ctx, &pb.GetSaltRequest{UUID: uid.String()})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Salt, nil
}

// Login checks the verifier with the server and, on success, uses it for
// all later calls.
func (s *GRPCClient) Login(ctx context.Context, uid uuid.UUID, verifier []byte) error {
	req := &pb.LoginRequest{UUID: uid.String(), VerifierCandidate: verifier}
	if _, err := s.client.Login(ctx, req); err != nil {
		return s.mapError(err)
	}
	s.SetAccount(uid, verifier)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) SetProfile(ctx context.Context, version string, commitment []byte, name string) error {
	req := &pb.SetProfileRequest{Version: version, Commitment: commitment, Name: []byte(name)}
	if _, err := s.client.SetProfile(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) GetProfile(ctx context.Context, uid uuid.UUID, version string, credentialRequest []byte) (*Profile, error) {
	req := &pb.GetProfileRequest{UUID: uid.String(), Version: version, CredentialRequest: credentialRequest}
	resp, err := s.client.GetProfile(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &Profile{Name: string(resp.Name), Credential: resp.Credential}, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return common.ErrUnauthorized
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
