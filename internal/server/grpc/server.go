// Package grpc exposes the account and profile API of the reference server.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophgroups/internal/logging"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	pb.UnimplementedAccountServiceServer
	address  string
	accounts *services.AccountService
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, accounts *services.AccountService) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: accounts,
	}
}

// NewServer builds a grpc.Server with the account service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(pb.Codec{}),
		grpc.ChainUnaryInterceptor(s.accountAuthInterceptor),
	)
	pb.RegisterAccountServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
