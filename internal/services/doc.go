// Package services defines the [Service] interface for the picking backend and implements it over HTTP.
//
// # Service Interface
//
// The backend owns runs, batches, and the transactional pick commit; this
// client only reads run/batch data. All operations take a context and carry
// an explicit request timeout distinct from the stream client's backoff.
//
// # Response Envelope
//
// Every endpoint answers with `{success, data, message}`. Failures while the
// HTTP layer itself succeeds are reported either through `success=false` or a
// structured error body `{error: {code, message, correlationId, details}}`,
// which decodes to [*APIError] so callers keep the code and correlation id
// for diagnostics.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : HTTP request failed or envelope reported failure
//   - [shared.ErrRunNotFound] : Run number unknown to the backend
//   - [*APIError] : Structured backend error with correlation id
package services
