package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/services"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, services.ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func parseUID(s string) (uuid.UUID, error) {
	uid, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "invalid uuid")
	}
	return uid, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterAccountRequest) (*pb.RegisterAccountResponse, error) {
	uid, err := parseUID(req.UUID)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Register(ctx, uid, req.Salt, req.Verifier); err != nil {
		s.logger.Error(ctx, "registration failed", "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "uid", uid)
	return &pb.RegisterAccountResponse{}, nil
}

func (s *GRPCServer) GetSalt(ctx context.Context, req *pb.GetSaltRequest) (*pb.GetSaltResponse, error) {
	uid, err := parseUID(req.UUID)
	if err != nil {
		return nil, err
	}

	salt, err := s.accounts.GetSalt(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetSaltResponse{Salt: salt}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	uid, err := parseUID(req.UUID)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.Authenticate(ctx, uid, req.VerifierCandidate); err != nil {
		return nil, toStatus(err)
	}
	return &pb.LoginResponse{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) SetProfile(ctx context.Context, req *pb.SetProfileRequest) (*pb.SetProfileResponse, error) {
	uid, ok := accountFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	if err := s.accounts.SetProfile(ctx, uid, req.Version, req.Commitment, req.Name); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug(ctx, "profile set", "uid", uid, "version", req.Version)
	return &pb.SetProfileResponse{}, nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, req *pb.GetProfileRequest) (*pb.GetProfileResponse, error) {
	uid, err := parseUID(req.UUID)
	if err != nil {
		return nil, err
	}

	name, cred, err := s.accounts.GetProfile(ctx, uid, req.Version, req.CredentialRequest)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetProfileResponse{Name: name, Credential: cred}, nil
}
