package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

var authenticatedMethods = map[string]bool{
	pb.AccountService_SetProfile_FullMethodName: true,
	pb.AccountService_GetProfile_FullMethodName: true,
}

// accountAuthInterceptor checks "Basic base64(uid:hex(verifier))" on the
// methods that act as an account.
func (s *GRPCServer) accountAuthInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !authenticatedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}
	if header == "" {
		return nil, status.Error(codes.Unauthenticated, "missing authorization")
	}

	user, verifier, err := cryptox.ParseBasicAuth(header)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "bad authorization")
	}
	uid, err := uuid.Parse(user)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "bad authorization")
	}
	if _, err := s.accounts.Authenticate(ctx, uid, verifier); err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, accountIDKey, uid), req)
}

func accountFrom(ctx context.Context) (uuid.UUID, bool) {
	uid, ok := ctx.Value(accountIDKey).(uuid.UUID)
	return uid, ok
}
