package errors

import "errors"

var (
	ErrInvalidRequest           = errors.New("invalid request")
	ErrWorkflowNotFound         = errors.New("workflow not found")
	ErrUnknownWorkflowType      = errors.New("unknown workflow type")
	ErrTrackingUnavailable      = errors.New("workflow tracking unavailable")
	ErrRepositoryInvariantBroke = errors.New("repository invariant broken")
)
