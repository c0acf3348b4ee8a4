package models

import "errors"

// Resolution failures. Stores wrap these with %w; callers match with errors.Is.
var (
	ErrBusNotFound          = errors.New("bus not found")
	ErrDriverNotFound       = errors.New("driver not found")
	ErrNoBusAssigned        = errors.New("no bus assigned to this driver")
	ErrStopNotFound         = errors.New("stop not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrStalePosition means a concurrent writer already stored a newer position for the bus.
	ErrStalePosition = errors.New("bus position was updated concurrently")
)
