package ebstack

import "github.com/pkg/errors"

var (
	// ErrArenaExhausted is returned by Push when no slot can be allocated for the new node
	ErrArenaExhausted = errors.New("ebstack: slot arena exhausted")

	// ErrInvalidOption is returned by New when an Option carries an out of range value
	ErrInvalidOption = errors.New("ebstack: invalid option")
)

// ErrPoolClosed is returned by Pool.Submit after Release
var ErrPoolClosed = errors.New("ebstack: pool closed")
