package skeleton

import (
	"math"

	"github.com/pkg/errors"

	"bvh-pose-renderer/internal/mathutil"
)

// Skeleton owns every joint of one loaded motion. Joints are stored in parse
// order; AddJoint is the only path that writes the arena and the name index.
type Skeleton struct {
	root      int
	joints    []*Joint
	nameIndex map[string]int

	numFrames   int
	frameTime   float64 // seconds per frame
	numChannels int     // sum of ChannelCount over all joints
}

func New() *Skeleton {
	return &Skeleton{
		root:      NoParent,
		nameIndex: make(map[string]int),
	}
}

// AddJoint appends j, registers its name and accumulates its channels.
// On ErrDuplicateName nothing is changed.
func (s *Skeleton) AddJoint(j *Joint) (int, error) {
	if j == nil {
		return NoParent, errors.Wrap(ErrStructure, "nil joint")
	}
	if _, exists := s.nameIndex[j.name]; exists {
		return NoParent, errors.Wrapf(ErrDuplicateName, "%q", j.name)
	}

	idx := len(s.joints)
	j.index = idx
	j.resizeSlots(s.numFrames)
	s.joints = append(s.joints, j)
	s.nameIndex[j.name] = idx
	s.numChannels += j.ChannelCount()
	return idx, nil
}

// SetJoints replaces the whole arena by replaying AddJoint over list.
// The root is cleared and must be set again. On error the skeleton is unchanged.
func (s *Skeleton) SetJoints(list []*Joint) error {
	next := New()
	next.numFrames = s.numFrames
	next.frameTime = s.frameTime
	for _, j := range list {
		if _, err := next.AddJoint(j); err != nil {
			return err
		}
	}
	*s = *next
	return nil
}

// GetJoint looks a joint up by name.
func (s *Skeleton) GetJoint(name string) (*Joint, error) {
	idx, err := s.IndexOf(name)
	if err != nil {
		return nil, err
	}
	return s.joints[idx], nil
}

func (s *Skeleton) IndexOf(name string) (int, error) {
	idx, ok := s.nameIndex[name]
	if !ok {
		return NoParent, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return idx, nil
}

func (s *Skeleton) HaveJoint(name string) bool {
	_, ok := s.nameIndex[name]
	return ok
}

// JointAt returns the joint at index i.
func (s *Skeleton) JointAt(i int) (*Joint, error) {
	if i < 0 || i >= len(s.joints) {
		return nil, errors.Wrapf(ErrNotFound, "index %d of %d", i, len(s.joints))
	}
	return s.joints[i], nil
}

// Joints returns the joints in parse order. The slice is a copy; the joints are not.
func (s *Skeleton) Joints() []*Joint {
	return append([]*Joint(nil), s.joints...)
}

func (s *Skeleton) Len() int { return len(s.joints) }

// SetRootJoint marks the joint at index as root. It must not have a parent.
func (s *Skeleton) SetRootJoint(index int) error {
	j, err := s.JointAt(index)
	if err != nil {
		return err
	}
	if j.parent != NoParent {
		return errors.Wrapf(ErrStructure, "root %q has parent %d", j.name, j.parent)
	}
	s.root = index
	return nil
}

// RootJoint returns the root, or nil when none is set.
func (s *Skeleton) RootJoint() *Joint {
	if s.root == NoParent {
		return nil
	}
	return s.joints[s.root]
}

func (s *Skeleton) RootIndex() int { return s.root }

// Attach links child under parent in both directions.
func (s *Skeleton) Attach(parent, child int) error {
	p, err := s.JointAt(parent)
	if err != nil {
		return err
	}
	c, err := s.JointAt(child)
	if err != nil {
		return err
	}
	if parent == child {
		return errors.Wrapf(ErrStructure, "joint %q cannot parent itself", c.name)
	}
	if c.parent != NoParent {
		return errors.Wrapf(ErrStructure, "joint %q already has parent %d", c.name, c.parent)
	}
	if child == s.root {
		return errors.Wrapf(ErrStructure, "root %q cannot have a parent", c.name)
	}
	c.parent = parent
	p.addChild(child)
	return nil
}

// SetNumFrames sizes every joint's transform slots to n.
func (s *Skeleton) SetNumFrames(n int) {
	if n < 0 {
		n = 0
	}
	s.numFrames = n
	for _, j := range s.joints {
		j.resizeSlots(n)
	}
}

func (s *Skeleton) NumFrames() int { return s.numFrames }

func (s *Skeleton) SetFrameTime(t float64) { s.frameTime = t }

func (s *Skeleton) FrameTime() float64 { return s.frameTime }

func (s *Skeleton) NumChannels() int { return s.numChannels }

// Duration is the playback length in seconds.
func (s *Skeleton) Duration() float64 {
	return float64(s.numFrames) * s.frameTime
}

// FrameAt converts a playback time in seconds to a frame index.
func (s *Skeleton) FrameAt(seconds float64) (int, error) {
	if s.frameTime <= 0 {
		return 0, errors.Wrapf(ErrMotionLayout, "frame time %v", s.frameTime)
	}
	if seconds < 0 || math.IsNaN(seconds) {
		return 0, errors.Wrapf(ErrOutOfRange, "time %v", seconds)
	}
	// Nudge so that exact multiples of frame time land on their own frame.
	f := int(math.Floor(seconds/s.frameTime + 1e-9))
	if f >= s.numFrames {
		return 0, errors.Wrapf(ErrOutOfRange, "time %v is past frame %d", seconds, s.numFrames-1)
	}
	return f, nil
}

// LoadMotion distributes raw frame rows of width NumChannels across the
// joints in joint order and sets the frame count to len(rows).
func (s *Skeleton) LoadMotion(rows [][]float64) error {
	for i, row := range rows {
		if len(row) != s.numChannels {
			return errors.Wrapf(ErrMotionLayout, "frame %d has %d values, want %d", i, len(row), s.numChannels)
		}
	}

	for _, j := range s.joints {
		j.motion = make([][]float64, 0, len(rows))
		j.clearPosed()
	}
	for _, row := range rows {
		off := 0
		for _, j := range s.joints {
			n := j.ChannelCount()
			if n > 0 {
				j.motion = append(j.motion, append([]float64(nil), row[off:off+n]...))
			}
			off += n
		}
	}
	s.SetNumFrames(len(rows))
	return nil
}

// CheckMotion verifies that every joint holds NumFrames rows of motion.
func (s *Skeleton) CheckMotion() error {
	total := 0
	for _, j := range s.joints {
		total += j.ChannelCount()
		if j.ChannelCount() == 0 {
			continue
		}
		if len(j.motion) != s.numFrames {
			return errors.Wrapf(ErrMotionLayout, "joint %q has %d frames, want %d", j.name, len(j.motion), s.numFrames)
		}
	}
	if total != s.numChannels {
		return errors.Wrapf(ErrMotionLayout, "channel total %d, recorded %d", total, s.numChannels)
	}
	return nil
}

// Positions returns every joint's world position for an already recalculated frame.
func (s *Skeleton) Positions(frame int) ([]mathutil.Vec3, error) {
	out := make([]mathutil.Vec3, len(s.joints))
	for i, j := range s.joints {
		g, err := j.GlobalTransform(frame)
		if err != nil {
			return nil, err
		}
		out[i] = g.Translation()
	}
	return out, nil
}

// Walk visits the tree from the root in depth-first pre-order.
func (s *Skeleton) Walk(fn func(j *Joint, depth int) error) error {
	if s.root == NoParent {
		return errors.Wrap(ErrStructure, "no root joint")
	}
	type item struct{ idx, depth int }
	seen := make([]bool, len(s.joints))
	stack := []item{{s.root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[it.idx] {
			return errors.Wrapf(ErrStructure, "joint %q reached twice", s.joints[it.idx].name)
		}
		seen[it.idx] = true

		j := s.joints[it.idx]
		if err := fn(j, it.depth); err != nil {
			return err
		}
		for c := len(j.children) - 1; c >= 0; c-- {
			ci := j.children[c]
			if err := s.checkChild(it.idx, ci); err != nil {
				return err
			}
			stack = append(stack, item{ci, it.depth + 1})
		}
	}
	return nil
}

func (s *Skeleton) checkChild(parent, child int) error {
	if child < 0 || child >= len(s.joints) {
		return errors.Wrapf(ErrStructure, "joint %q lists missing child %d", s.joints[parent].name, child)
	}
	if s.joints[child].parent != parent {
		return errors.Wrapf(ErrStructure, "joint %q is listed under %q but its parent is %d",
			s.joints[child].name, s.joints[parent].name, s.joints[child].parent)
	}
	return nil
}
