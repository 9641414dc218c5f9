package pool

import "errors"

var (
	// ErrNoSpace indicates that no sufficiently long run of free super
	// pages exists in the pool. This is the one recoverable failure in
	// the package; every other misuse panics.
	ErrNoSpace = errors.New("pool: no contiguous free run large enough")
)
