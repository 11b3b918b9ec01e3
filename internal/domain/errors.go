package domain

import "errors"

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrMilestoneNotFound  = errors.New("milestone not found")
	ErrProjectNotDeleted  = errors.New("project is not recoverable")
	ErrVersionMismatch    = errors.New("version mismatch")

	ErrUnsupportedAction = errors.New("unsupported action")
	ErrStatusRequired    = errors.New("new_status is required")
	ErrTagRequired       = errors.New("tag is required")
)
