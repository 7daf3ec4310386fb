package skeleton

import "github.com/pkg/errors"

// Lookup, insertion and frame errors are recoverable; ErrStructure means the
// loaded skeleton is malformed and the whole pose computation should be dropped.
var (
	ErrNotFound       = errors.New("joint not found")
	ErrDuplicateName  = errors.New("duplicate joint name")
	ErrOutOfRange     = errors.New("frame out of range")
	ErrStructure      = errors.New("joint hierarchy is malformed")
	ErrUnknownChannel = errors.New("unknown channel kind")
	ErrMotionLayout   = errors.New("motion data does not match channel layout")
	ErrParentNotPosed = errors.New("parent has no global transform for frame")
	ErrNotPosed       = errors.New("joint has not been posed for frame")
)
