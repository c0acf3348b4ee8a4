package tracking

import "errors"

// ErrInvalidCoordinates is returned before any write when latitude or longitude is out of range.
var ErrInvalidCoordinates = errors.New("latitude must be between -90 and 90 and longitude between -180 and 180")
