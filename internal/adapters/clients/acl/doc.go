// Package acl holds the anti-corruption layer between the library and the
// downstream services it consults.
//
// Each adapter keeps the remote service's wire format in unexported DTOs,
// validates what comes back and returns domain types. Transport and status
// failures are mapped onto the domain error sentinels:
//
//   - 404 Not Found → [domain.ErrNotFound]
//   - 409 Conflict → [domain.ErrConflict]
//   - 400/422 → [domain.ErrValidation]
//   - 401/403 → [domain.ErrForbidden]
//   - 429, 5xx, open circuit, exhausted retries → [domain.ErrUnavailable]
//
// [CatalogClient] is the adapter for the book catalog. New adapters embed
// [BaseAdapter] and follow the same shape:
//
//	body, err := a.Get(ctx, "/books/"+url.PathEscape(id), "get book", id)
//	if err != nil {
//	    return nil, err // already a domain error
//	}
//
//	ext, err := acl.DecodeResponseForService[externalBook](body, a.ServiceName())
//	if err != nil {
//	    return nil, err
//	}
//
//	return translateBook(ext)
package acl
