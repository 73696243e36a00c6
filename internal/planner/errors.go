package planner

import "github.com/pkg/errors"

var (
	ErrDimensionMismatch = errors.New("point dimension does not match the space")
	ErrOutOfBounds       = errors.New("point lies outside the space bounds")
	ErrInvalidOptions    = errors.New("invalid planner options")
	ErrGoalUnreachable   = errors.New("goal cannot be connected to the tree")
)

// ErrBrokenParentChain is returned when walking parent links does not reach
// the root within the number of committed vertices.
var ErrBrokenParentChain = errors.New("parent links do not terminate at the root")
