package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
)

// NewAuthInterceptor guards unary gRPC methods with the access guard. Methods
// listed in exemptMethods are served without a token.
func NewAuthInterceptor(
	guard *usecase.AccessGuard,
	logger *zerolog.Logger,
	exemptMethods []string,
) grpc.UnaryServerInterceptor {
	exemptMap := make(map[string]bool)
	for _, method := range exemptMethods {
		exemptMap[method] = true
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		// Skip authentication for exempt methods
		if exemptMap[info.FullMethod] {
			return handler(ctx, req)
		}

		token, ok := bearerFromMetadata(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, usecase.ErrUnauthenticated.Error())
		}

		user, err := guard.Authenticate(ctx, token)
		if err == nil {
			err = guard.RequireActive(user)
		}
		if err != nil {
			logger.Debug().Err(err).Str("method", info.FullMethod).Msg("grpc request rejected")
			return nil, grpcStatus(err)
		}

		return handler(WithUser(ctx, user), req)
	}
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return "", false
	}

	return extractBearerToken(values[0])
}

func grpcStatus(err error) error {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, usecase.ErrUnauthenticated.Error())
	case errors.Is(err, usecase.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "something went wrong")
	}
}
