package errors

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Categories, every sentinel below wraps exactly one of them.
var (
	ErrNotFound        = fmt.Errorf("not found")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrConflict        = fmt.Errorf("conflict")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrUnauthenticated = fmt.Errorf("unauthenticated")
)

var (
	ErrRoomNotFound         = fmt.Errorf("room: %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message: %w", ErrNotFound)
	ErrSessionNotFound      = fmt.Errorf("session: %w", ErrNotFound)
	ErrCursorNotFound       = fmt.Errorf("read cursor: %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification: %w", ErrNotFound)

	ErrNotParticipant = fmt.Errorf("not a participant of the room: %w", ErrForbidden)
	ErrNotSender      = fmt.Errorf("only the sender can modify a message: %w", ErrForbidden)
	ErrMissingRole    = fmt.Errorf("missing role: %w", ErrForbidden)

	ErrMessageDeleted = fmt.Errorf("message already deleted: %w", ErrConflict)

	ErrEmptyContent       = fmt.Errorf("content is empty: %w", ErrInvalidArgument)
	ErrContentTooLong     = fmt.Errorf("content exceeds the maximum length: %w", ErrInvalidArgument)
	ErrEmptyMembership    = fmt.Errorf("room needs at least one participant: %w", ErrInvalidArgument)
	ErrRoomNameTooLong    = fmt.Errorf("room name is too long: %w", ErrInvalidArgument)
	ErrInvalidParticipant = fmt.Errorf("invalid participant id: %w", ErrInvalidArgument)
	ErrInvalidCommand     = fmt.Errorf("unknown command: %w", ErrInvalidArgument)
	ErrInvalidQuery       = fmt.Errorf("invalid search query: %w", ErrInvalidArgument)

	ErrMissingToken = fmt.Errorf("missing token: %w", ErrUnauthenticated)
	ErrInvalidToken = fmt.Errorf("invalid token: %w", ErrUnauthenticated)
)

// Runtime failures, never returned to clients as-is.
var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrRoomWorkerStopped  = fmt.Errorf("room worker stopped")
	ErrSupervisorStopped  = fmt.Errorf("supervisor stopped")
	ErrSlowConsumer       = fmt.Errorf("slow consumer: outbound queue full")
	ErrSessionClosed      = fmt.Errorf("session closed")
	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrOrchestratorClosed = fmt.Errorf("orchestrator closed")
)

// Code is the wire name of an error category.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeConflict        Code = "CONFLICT"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeInternal        Code = "INTERNAL"
)

func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, ErrOrchestratorClosed):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// CategoryOf is the inverse of CodeOf for the categories clients can observe.
func CategoryOf(code Code) error {
	switch code {
	case CodeNotFound:
		return ErrNotFound
	case CodeForbidden:
		return ErrForbidden
	case CodeConflict:
		return ErrConflict
	case CodeInvalidArgument:
		return ErrInvalidArgument
	case CodeUnauthenticated:
		return ErrUnauthenticated
	default:
		return nil
	}
}

// MapToGRPCError converts a domain error into a gRPC status error.
// Internal failures are masked.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch CodeOf(err) {
	case CodeNotFound:
		return status.Error(codes.NotFound, err.Error())
	case CodeForbidden:
		return status.Error(codes.PermissionDenied, err.Error())
	case CodeConflict:
		return status.Error(codes.FailedPrecondition, err.Error())
	case CodeInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case CodeUnauthenticated:
		return status.Error(codes.Unauthenticated, err.Error())
	case CodeUnavailable:
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// PublicMessage hides internal failure details from clients.
func PublicMessage(err error) string {
	if CodeOf(err) == CodeInternal {
		return "internal error"
	}
	return err.Error()
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

func Join(errs ...error) error { return errors.Join(errs...) }
