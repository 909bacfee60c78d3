package acl

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/biblioteca/internal/adapters/clients"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// Call identifies a remote request for error reporting.
type Call struct {
	Service   string
	Entity    string
	Operation string
	// EntityID is reported in not-found errors.
	EntityID string
}

// remoteError reads both {"error":{"code","message","details"}} and the
// flat {"code","message"} layout.
type remoteError struct {
	Nested struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *remoteError) code() string    { return cmp.Or(r.Nested.Code, r.Code) }
func (r *remoteError) message() string { return cmp.Or(r.Nested.Message, r.Message) }

// readRemoteError decodes body. It returns nil for a missing, malformed or
// empty error body.
func readRemoteError(body io.Reader) *remoteError {
	if body == nil {
		return nil
	}

	var r remoteError
	if json.NewDecoder(body).Decode(&r) != nil || (r.code() == "" && r.message() == "") {
		return nil
	}

	return &r
}

// Err maps the outcome of call to a domain error. transportErr wins over
// resp; a 2xx resp yields nil.
func (c Call) Err(resp *http.Response, transportErr error) error {
	switch {
	case errors.Is(transportErr, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(c.Service, "circuit breaker open during "+c.Operation)
	case errors.Is(transportErr, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(c.Service, "max retries exceeded during "+c.Operation)
	case transportErr != nil:
		return domain.NewUnavailableError(c.Service, fmt.Sprintf("%s failed: %v", c.Operation, transportErr))
	case resp == nil:
		return domain.NewUnavailableError(c.Service, "no response received")
	case resp.StatusCode < http.StatusBadRequest:
		return nil
	}

	return c.statusErr(resp.StatusCode, readRemoteError(resp.Body))
}

func (c Call) statusErr(status int, remote *remoteError) error {
	msg := fallbackMessage(status, c.Operation)
	if remote != nil {
		msg = cmp.Or(remote.message(), msg)
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(c.Entity, c.EntityID)
	case status == http.StatusConflict:
		return domain.NewConflictError(c.Entity, msg)
	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(c.Operation, "authentication required")
	case status == http.StatusForbidden:
		return domain.NewForbiddenError(c.Operation, msg)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(c.Service, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(c.Service, msg)
	}

	if remote != nil {
		for field, fieldMsg := range remote.Nested.Details {
			return domain.NewValidationError(field, fieldMsg)
		}
	}

	return domain.NewValidationError("", msg)
}

func fallbackMessage(status int, operation string) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusConflict:
		return "resource conflict"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	}

	return fmt.Sprintf("%s failed with status %d", operation, status)
}
