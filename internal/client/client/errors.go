package client

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// authErrors are told apart by the status message, which carries the text
// of the server side sentinel.
var authErrors = []error{
	common.ErrTokenExpired,
	common.ErrRefreshTokenExpired,
	common.ErrInvalidToken,
}

// mapError turns an RPC failure into common.ErrBackend joined with the
// sentinel matching its status code.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", common.ErrBackend, err)
	}

	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = common.ErrValidation
	case codes.NotFound:
		sentinel = common.ErrNotFound
	case codes.AlreadyExists:
		sentinel = common.ErrAlreadyExists
	case codes.Unauthenticated, codes.PermissionDenied:
		sentinel = common.ErrUnauthorized
		for _, e := range authErrors {
			if st.Message() == e.Error() {
				sentinel = e
			}
		}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		sentinel = common.ErrUnavailable
	default:
		sentinel = common.ErrInternal
	}

	detail := strings.TrimPrefix(st.Message(), sentinel.Error())
	detail = strings.TrimPrefix(detail, ": ")
	if detail == "" {
		return fmt.Errorf("%w: %w", common.ErrBackend, sentinel)
	}
	return fmt.Errorf("%w: %w: %s", common.ErrBackend, sentinel, detail)
}
