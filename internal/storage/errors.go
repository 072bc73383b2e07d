package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/minio/minio-go/v7"
)

// Kind tags the cause of a failed store operation.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAccessDenied
	KindTransport
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindAccessDenied:
		return "access-denied"
	case KindTransport:
		return "transport-error"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound     = errors.New("object not found")
	ErrAccessDenied = errors.New("access denied")
	ErrTransport    = errors.New("transport error")
	ErrInvalid      = errors.New("invalid request")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindAccessDenied:
		return ErrAccessDenied
	case KindTransport:
		return ErrTransport
	case KindInvalid:
		return ErrInvalid
	default:
		return nil
	}
}

// Error is returned by every failed store operation.
type Error struct {
	Op   string
	Key  string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so errors.Is(err, ErrNotFound)
// works without unwrapping to *Error first.
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// KindOf reports the kind of err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return KindUnknown
}

func classifyS3(err error) Kind {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return KindNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind := kindForCode(apiErr.ErrorCode()); kind != KindUnknown {
			return kind
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		if kind := kindForStatus(respErr.HTTPStatusCode()); kind != KindUnknown {
			return kind
		}
	}

	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return KindTransport
	}
	return classifyCommon(err)
}

func classifyMinio(err error) Kind {
	resp := minio.ToErrorResponse(err)
	if kind := kindForCode(resp.Code); kind != KindUnknown {
		return kind
	}
	if kind := kindForStatus(resp.StatusCode); kind != KindUnknown {
		return kind
	}
	return classifyCommon(err)
}

func classifyCommon(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}
	return KindUnknown
}

func kindForCode(code string) Kind {
	switch code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return KindNotFound
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		return KindAccessDenied
	default:
		return KindUnknown
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAccessDenied
	default:
		return KindUnknown
	}
}
