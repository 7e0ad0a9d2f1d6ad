package pds

import (
	"context"
	stderrs "errors"
	"net"
	"net/http"

	perr "plaza/internal/platform/errors"

	"github.com/bluesky-social/indigo/xrpc"
)

// MapError classifies an xrpc failure into the project error taxonomy
//
// Network-class failures come back retryable (Unavailable); HTTP-level
// rejections map to their closest code and are terminal
func MapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var xe *xrpc.Error
	if stderrs.As(err, &xe) {
		switch {
		case xe.StatusCode == http.StatusNotFound:
			return perr.Wrapf(err, perr.ErrorCodeNotFound, "%s: record not found", op)
		case xe.StatusCode == http.StatusUnauthorized:
			return perr.Wrapf(err, perr.ErrorCodeUnauthorized, "%s: upstream rejected credentials", op)
		case xe.StatusCode == http.StatusBadRequest && xrpcErrName(xe) == "RecordNotFound":
			return perr.Wrapf(err, perr.ErrorCodeNotFound, "%s: record not found", op)
		case xe.StatusCode == http.StatusBadRequest && xrpcErrName(xe) == "InvalidSwap":
			return perr.Wrapf(err, perr.ErrorCodeConflict, "%s: stale swap", op)
		case xe.StatusCode == http.StatusConflict:
			return perr.Wrapf(err, perr.ErrorCodeConflict, "%s: upstream conflict", op)
		case xe.StatusCode == http.StatusTooManyRequests,
			xe.StatusCode >= http.StatusInternalServerError:
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: upstream unavailable", op)
		default:
			return perr.Wrapf(err, perr.ErrorCodeUpstream, "%s: upstream error", op)
		}
	}

	if isNetworkErr(err) {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: network failure", op)
	}
	return perr.Wrapf(err, perr.ErrorCodeUpstream, "%s failed", op)
}

// xrpcErrName sniffs the XRPC error name out of a 400
// getRecord reports missing records as RecordNotFound and putRecord reports a
// lost compare-and-swap as InvalidSwap, both with a 400 rather than a
// distinct status
func xrpcErrName(xe *xrpc.Error) string {
	var body *xrpc.XRPCError
	if stderrs.As(xe.Wrapped, &body) {
		return body.ErrStr
	}
	return ""
}

func isNetworkErr(err error) bool {
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrs.As(err, &ne)
}
