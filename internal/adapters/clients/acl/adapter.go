package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/biblioteca/internal/adapters/clients"
	"github.com/jsamuelsen/biblioteca/internal/domain"
)

// BaseAdapter carries the client and service name shared by every adapter.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
	entity      string
}

// NewBaseAdapter creates a base adapter. entity names the remote resource in
// not-found errors.
func NewBaseAdapter(client *clients.Client, serviceName, entity string) BaseAdapter {
	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
		entity:      entity,
	}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name of the remote service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get performs a GET and returns the body of a successful response; the
// caller closes it. Failures come back as domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path, operation, entityID string) (io.ReadCloser, error) {
	call := Call{Service: a.serviceName, Entity: a.entity, Operation: operation, EntityID: entityID}

	resp, err := a.client.Get(ctx, path)
	if err != nil {
		return nil, call.Err(nil, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, call.Err(resp, nil)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, fmt.Errorf("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// DecodeResponseForService is DecodeResponse with decode failures reported
// as the service being unavailable.
func DecodeResponseForService[T any](body io.ReadCloser, serviceName string) (*T, error) {
	result, err := DecodeResponse[T](body)
	if err != nil {
		return nil, domain.NewUnavailableError(serviceName, err.Error())
	}

	return result, nil
}

// ValidateRequired reports a blank value as a validation error on fieldName.
func ValidateRequired(value, fieldName string) error {
	if value == "" {
		return domain.NewValidationError(fieldName, "is required")
	}

	return nil
}

// Translator converts an external DTO into a domain value, rejecting data
// the domain cannot accept.
type Translator[External any, Domain any] func(ext *External) (Domain, error)

// TranslateSlice applies translate to every item and stops at the first error.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}
