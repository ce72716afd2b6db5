package errors

import "fmt"

var (
	ErrNameTaken         = fmt.Errorf("name already in use")
	ErrNotLoggedIn       = fmt.Errorf("participant not logged in")
	ErrSenderNotLoggedIn = fmt.Errorf("sender not logged in")
	ErrNotFound          = fmt.Errorf("message not found")
	ErrForbidden         = fmt.Errorf("message belongs to another sender")
	ErrInvalidLimit      = fmt.Errorf("limit must be a positive integer")
	ErrValidation        = fmt.Errorf("invalid message fields")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
)
