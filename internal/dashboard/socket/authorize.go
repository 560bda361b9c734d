// Package socket authorizes realtime-channel connections. The handshake
// validator accepts the same opaque tokens as the HTTP auth gate,
// carried in an Authorization header or a token query parameter.
package socket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/metrics"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
)

// TokenLookup resolves an opaque token value to its row.
// *service.TokenService satisfies it.
type TokenLookup interface {
	Lookup(ctx context.Context, value string) (domain.Token, error)
}

// AuthData is the handshake input. Request-shaped handshakes set
// Request; raw payloads set Header and Query directly. On success the
// resolved token value is written back into Token.
type AuthData struct {
	Request *http.Request
	Header  http.Header
	Query   url.Values

	Token string
}

func (d *AuthData) header() http.Header {
	if d.Request != nil {
		return d.Request.Header
	}
	if d.Header == nil {
		return http.Header{}
	}
	return d.Header
}

func (d *AuthData) query() url.Values {
	if d.Request != nil {
		return d.Request.URL.Query()
	}
	if d.Query == nil {
		return url.Values{}
	}
	return d.Query
}

// Authorize validates the handshake credential in data against the
// token store. It returns nil on success (with data.Token populated)
// or an *UnauthorizedError.
func Authorize(ctx context.Context, lookup TokenLookup, data *AuthData) error {
	var token string

	if authz := data.header().Get("Authorization"); authz != "" {
		parts := strings.Split(authz, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fail(unauthorized(CodeCredentialsBadFormat,
				"format is Authorization: Bearer [token]"))
		}
		token = parts[1]
	}

	// A token query parameter wins over the header when both are sent.
	if qt := data.query().Get("token"); qt != "" {
		token = qt
	}

	if token == "" {
		return fail(unauthorized(CodeCredentialsRequired,
			"no authorization token was found"))
	}

	result, err := lookup.Lookup(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return fail(unauthorized(CodeInvalidToken, "token could not be found"))
	}
	if err != nil {
		return fail(&UnauthorizedError{
			Code:    CodeInternalError,
			Message: "token lookup failed",
			Err:     err,
		})
	}

	data.Token = result.Value
	return nil
}

func fail(err *UnauthorizedError) error {
	metrics.HandshakeFailures.WithLabelValues(err.Code).Inc()
	return err
}

// Accept is the transport's accept/reject continuation. ok reports
// whether the connection may proceed; err carries the rejection cause
// for transports with a native error path.
type Accept func(err error, ok bool)

// Options overrides how authorization results reach the transport.
type Options struct {
	Success func(data *AuthData, accept Accept)
	Fail    func(err error, data *AuthData, accept Accept)
}

// Authorizer returns a handshake validator with pluggable success and
// fail continuations. The defaults accept silently; on failure a
// request-shaped handshake receives the error object while a raw
// payload only signals false.
func Authorizer(lookup TokenLookup, opts *Options) func(ctx context.Context, data *AuthData, accept Accept) {
	success := func(data *AuthData, accept Accept) {
		accept(nil, true)
	}
	failCont := func(err error, data *AuthData, accept Accept) {
		if data.Request != nil {
			accept(err, false)
			return
		}
		accept(nil, false)
	}

	if opts != nil && opts.Success != nil {
		success = opts.Success
	}
	if opts != nil && opts.Fail != nil {
		failCont = opts.Fail
	}

	return func(ctx context.Context, data *AuthData, accept Accept) {
		if err := Authorize(ctx, lookup, data); err != nil {
			failCont(err, data, accept)
			return
		}
		success(data, accept)
	}
}
