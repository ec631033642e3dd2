package jwtx

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is the root of every verification failure, so callers
// that only care about "valid or not" can match on it alone.
var ErrInvalidToken = errors.New("jwtx: invalid token")

var (
	ErrMalformed    = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidSig   = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpired      = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrNotYetValid  = fmt.Errorf("%w: not yet valid", ErrInvalidToken)
	ErrIssuer       = fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	ErrInvalidClaim = fmt.Errorf("%w: invalid claims", ErrInvalidToken)
)

// ErrEmptySecret is returned when an HS256 key is constructed without a secret.
var ErrEmptySecret = errors.New("jwtx: empty signing secret")
