// Package handlers defines the error codes returned by the admin API.
//
// Codes are stable, lowercase snake_case strings that clients branch on; the
// message next to them is for humans. Every error response carries one.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_range",
//	  "message": "range must not exceed 366 days"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeNothingRecognized = "nothing_recognized"
	ErrCodeInvalidRange      = "invalid_range"
	ErrCodeNoRecords         = "no_records"
	ErrCodeIntakeFailed      = "intake_failed"
	ErrCodeReportFailed      = "report_failed"
	ErrCodeExportFailed      = "export_failed"
	ErrCodeDeleteFailed      = "delete_failed"
)
