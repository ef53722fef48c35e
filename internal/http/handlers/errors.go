// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, not_found, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., muted, storage_misconfigured) are reserved for
//     business errors the client reacts to differently than the status alone suggests.
//
// Example response:
//   {
//     "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//     "code": "storage_misconfigured",
//     "message": "bucket \"images\" does not exist; create it and mark it public"
//   }

package handlers

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodePayloadTooLarge = "payload_too_large"
	ErrCodeUnprocessable   = "unprocessable"
	ErrCodeRateLimited     = "too_many_requests"
	ErrCodeInternal        = "internal_error"

	// Domain-specific:
	ErrCodeSendFailed           = "send_failed"
	ErrCodeListFailed           = "list_failed"
	ErrCodeUploadFailed         = "upload_failed"
	ErrCodeStorageMisconfigured = "storage_misconfigured"
	ErrCodeSettingsUnavailable  = "settings_unavailable"
	ErrCodeMuted                = "muted"
	ErrCodePushFailed           = "push_failed"
	ErrCodeMethodNotAllowed     = "method_not_allowed"
)
