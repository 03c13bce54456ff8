package services

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrAlreadyAwarded is returned when the submission's XP marker is already set.
	ErrAlreadyAwarded = errors.New("xp already awarded for submission")
	// ErrAlreadyDecided is returned when approving or rejecting a non-pending submission.
	ErrAlreadyDecided  = errors.New("submission already decided")
	ErrAlreadyPending  = errors.New("submission for this task is already pending")
	ErrAlreadyApproved = errors.New("task already approved")

	ErrNoChurch            = errors.New("user has no church selected")
	ErrTaskDifferentChurch = errors.New("task belongs to a different church")
	ErrTaskInactive        = errors.New("task is not active")
	ErrForbidden           = errors.New("forbidden")
)
