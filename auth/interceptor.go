package auth

import (
	"context"
	"space-chat/domain"
	"space-chat/errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Methods that do not require JWT authentication.
var publicMethods = map[string]struct{}{
	grpc_health_v1.Health_Check_FullMethodName: {},
	grpc_health_v1.Health_Watch_FullMethodName: {},
}

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RolesKey  contextKey = "roles"
)

// AuthInterceptor handles JWT validation for incoming gRPC calls.
// Every protected method requires the given role.
func AuthInterceptor(tokens TokenIssuer, requiredRole string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata is missing")
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
		}
		tokenStr, err := BearerToken(values[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
		}
		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		if requiredRole != "" && !claims.HasRole(requiredRole) {
			return nil, errors.MapToGRPCError(errors.ErrMissingRole)
		}

		// Inject identity into context for downstream service layers
		newCtx := context.WithValue(ctx, UserIDKey, domain.ParticipantID(claims.UserID))
		newCtx = context.WithValue(newCtx, RolesKey, claims.Roles)
		return handler(newCtx, req)
	}
}

func UserIDFromContext(ctx context.Context) (domain.ParticipantID, bool) {
	id, ok := ctx.Value(UserIDKey).(domain.ParticipantID)
	return id, ok
}

func isPublicMethod(method string) bool {
	_, ok := publicMethods[method]
	return ok
}
