package http

// Error codes carried in StatusResponse.ErrorCode.
const (
	ErrorCodeUnauthorized  = "unauthorized"
	ErrorCodeNoStore       = "no_store"
	ErrorCodeDatabase      = "database_error"
	ErrorCodeInvalidStatus = "invalid_status"
)

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// StatusResponse is either {success:true, status} or
// {success:false, error_code, message}.
type StatusResponse struct {
	Success         bool   `json:"success"`
	Status          string `json:"status,omitempty"`
	ShowsOnboarding *bool  `json:"shows_onboarding,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	Message         string `json:"message,omitempty"`
}
