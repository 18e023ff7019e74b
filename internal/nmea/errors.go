package nmea

import (
	"errors"

	"gpsreader/internal/geo"
)

var (
	// ErrMalformed reports a structural violation: missing delimiters, an
	// unexpected sentence identifier or a wrong field count.
	ErrMalformed = errors.New("nmea: malformed sentence")

	// ErrTypeMismatch reports a token that cannot be decoded into its field.
	ErrTypeMismatch = errors.New("nmea: field type mismatch")

	// ErrNoValidFix is returned by accessors when the receiver reports no usable fix.
	ErrNoValidFix = errors.New("nmea: no valid fix")

	// ErrInvalidOperand is returned by geodesic queries on unset positions.
	ErrInvalidOperand = geo.ErrInvalidOperand
)
