package skeleton

import (
	"github.com/pkg/errors"

	"bvh-pose-renderer/internal/mathutil"
)

// RecalculateAll poses the whole skeleton for frame, starting at the root.
func (s *Skeleton) RecalculateAll(frame int) error {
	if s.root == NoParent {
		return errors.Wrap(ErrStructure, "no root joint")
	}
	return s.RecalculateJointTransforms(frame, s.root)
}

// RecalculateJointTransforms computes local and global transforms for frame
// on start and every joint below it. A parent is always finished before any
// of its descendants; siblings follow child-list order.
//
// When start is not a root its parent must already be posed for frame.
// Different frames may be recalculated concurrently; the same frame may not.
// On error no joint visited by the pass is left posed for frame.
func (s *Skeleton) RecalculateJointTransforms(frame, start int) (err error) {
	if frame < 0 || frame >= s.numFrames {
		return errors.Wrapf(ErrOutOfRange, "frame %d of %d", frame, s.numFrames)
	}
	sj, err := s.JointAt(start)
	if err != nil {
		return err
	}
	if sj.parent != NoParent {
		if sj.parent < 0 || sj.parent >= len(s.joints) {
			return errors.Wrapf(ErrStructure, "joint %q has missing parent %d", sj.name, sj.parent)
		}
		if !s.joints[sj.parent].Posed(frame) {
			return errors.Wrapf(ErrParentNotPosed, "joint %q frame %d", sj.name, frame)
		}
	}

	seen := make([]bool, len(s.joints))
	stack := make([]int, 1, len(s.joints))
	stack[0] = start
	var visited []*Joint
	defer func() {
		if err != nil {
			for _, j := range visited {
				j.posed[frame] = false
			}
		}
	}()

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[idx] {
			return errors.Wrapf(ErrStructure, "joint %q reached twice", s.joints[idx].name)
		}
		seen[idx] = true

		j := s.joints[idx]
		local, err := j.LocalTransformFor(frame)
		if err != nil {
			return err
		}
		global := local
		if j.parent != NoParent {
			global = mathutil.Mat4Mul(s.joints[j.parent].global[frame], local)
		}
		j.local[frame] = local
		j.global[frame] = global
		j.posed[frame] = true
		visited = append(visited, j)

		// Reverse push so children pop in list order.
		for c := len(j.children) - 1; c >= 0; c-- {
			ci := j.children[c]
			if err := s.checkChild(idx, ci); err != nil {
				return err
			}
			stack = append(stack, ci)
		}
	}
	return nil
}
