package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/draftbid/internal/auction"
	"github.com/mmynk/draftbid/internal/storage"
)

// toConnectError maps engine and storage errors to Connect codes. Validation
// errors reach the caller verbatim; anything else is an internal error the
// caller may retry.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, auction.ErrInvalidAmount), errors.Is(err, auction.ErrUnknownParticipant):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case auction.IsValidation(err):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAborted, err)
	default:
		return connect.NewError(connect.CodeInternal, errors.New("internal error, try again"))
	}
}

func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}
