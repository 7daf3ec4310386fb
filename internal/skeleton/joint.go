package skeleton

import (
	"github.com/pkg/errors"

	"bvh-pose-renderer/internal/mathutil"
)

// NoParent marks a joint without a parent, and an unset root.
const NoParent = -1

// Joint is one node of the skeleton tree. Parent and child links are indices
// into the owning Skeleton; the joint itself owns nothing but its own data.
type Joint struct {
	name     string
	index    int
	offset   mathutil.Vec3
	channels []Channel

	parent   int
	children []int

	motion [][]float64 // motion[frame][channel]

	// Per-frame slots, sized to the skeleton's frame count up front.
	local  []mathutil.Mat4
	global []mathutil.Mat4
	posed  []bool
}

// NewJoint creates a detached joint. Channels are consumed per frame in the
// given order.
func NewJoint(name string, offset mathutil.Vec3, channels ...Channel) (*Joint, error) {
	for _, c := range channels {
		if !c.Valid() {
			return nil, errors.Wrapf(ErrUnknownChannel, "joint %q: %v", name, c)
		}
	}
	return &Joint{
		name:     name,
		index:    NoParent,
		offset:   offset,
		channels: append([]Channel(nil), channels...),
		parent:   NoParent,
	}, nil
}

func (j *Joint) Name() string { return j.name }

// Index is the position in the owning skeleton, or -1 before AddJoint.
func (j *Joint) Index() int { return j.index }

func (j *Joint) Offset() mathutil.Vec3 { return j.offset }

func (j *Joint) Channels() []Channel {
	return append([]Channel(nil), j.channels...)
}

func (j *Joint) ChannelCount() int { return len(j.channels) }

func (j *Joint) Parent() int { return j.parent }

func (j *Joint) Children() []int {
	return append([]int(nil), j.children...)
}

// addChild appends a child index without touching the child's back-link.
func (j *Joint) addChild(child int) { j.children = append(j.children, child) }

// NumFrames returns the number of stored motion rows.
func (j *Joint) NumFrames() int { return len(j.motion) }

// AppendFrame stores one frame of channel values in channel order.
func (j *Joint) AppendFrame(values []float64) error {
	if len(values) != len(j.channels) {
		return errors.Wrapf(ErrMotionLayout, "joint %q: got %d values for %d channels",
			j.name, len(values), len(j.channels))
	}
	j.motion = append(j.motion, append([]float64(nil), values...))
	return nil
}

// SetMotion replaces all motion rows from a flat buffer of frames × channels.
func (j *Joint) SetMotion(flat []float64) error {
	n := len(j.channels)
	if n == 0 {
		if len(flat) != 0 {
			return errors.Wrapf(ErrMotionLayout, "joint %q has no channels", j.name)
		}
		j.motion = nil
		j.clearPosed()
		return nil
	}
	if len(flat)%n != 0 {
		return errors.Wrapf(ErrMotionLayout, "joint %q: %d values is not a multiple of %d channels",
			j.name, len(flat), n)
	}
	motion := make([][]float64, 0, len(flat)/n)
	for off := 0; off < len(flat); off += n {
		motion = append(motion, append([]float64(nil), flat[off:off+n]...))
	}
	j.motion = motion
	j.clearPosed()
	return nil
}

// Frame returns the raw channel values for frame.
func (j *Joint) Frame(frame int) ([]float64, error) {
	row, err := j.row(frame)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), row...), nil
}

func (j *Joint) row(frame int) ([]float64, error) {
	if len(j.channels) == 0 {
		if frame < 0 || (len(j.local) > 0 && frame >= len(j.local)) {
			return nil, errors.Wrapf(ErrOutOfRange, "joint %q frame %d", j.name, frame)
		}
		return nil, nil
	}
	if frame < 0 || frame >= len(j.motion) {
		return nil, errors.Wrapf(ErrOutOfRange, "joint %q frame %d of %d", j.name, frame, len(j.motion))
	}
	return j.motion[frame], nil
}

// LocalTransformFor composes the joint's local transform for frame: the
// offset translation, then one primitive per channel in channel order.
// Rotation values are degrees.
func (j *Joint) LocalTransformFor(frame int) (mathutil.Mat4, error) {
	row, err := j.row(frame)
	if err != nil {
		return mathutil.Mat4{}, err
	}

	m := mathutil.Translate(j.offset)
	for i, c := range j.channels {
		v := row[i]
		if c.IsRotation() {
			m = m.Mul(mathutil.RotAxis4(c.Axis(), v))
		} else {
			m = m.Mul(mathutil.Translate(mathutil.Axis(c.Axis()).Scale(v)))
		}
	}
	return m, nil
}

// LocalTransform returns the stored local transform for frame.
func (j *Joint) LocalTransform(frame int) (mathutil.Mat4, error) {
	if err := j.checkPosed(frame); err != nil {
		return mathutil.Mat4{}, err
	}
	return j.local[frame], nil
}

// GlobalTransform returns the stored global transform for frame.
func (j *Joint) GlobalTransform(frame int) (mathutil.Mat4, error) {
	if err := j.checkPosed(frame); err != nil {
		return mathutil.Mat4{}, err
	}
	return j.global[frame], nil
}

// Posed reports whether both transforms are stored for frame.
func (j *Joint) Posed(frame int) bool {
	return frame >= 0 && frame < len(j.posed) && j.posed[frame]
}

func (j *Joint) SetLocalTransform(frame int, m mathutil.Mat4) error {
	if err := j.checkSlot(frame); err != nil {
		return err
	}
	j.local[frame] = m
	return nil
}

// SetGlobalTransform stores m and marks the frame as posed.
func (j *Joint) SetGlobalTransform(frame int, m mathutil.Mat4) error {
	if err := j.checkSlot(frame); err != nil {
		return err
	}
	j.global[frame] = m
	j.posed[frame] = true
	return nil
}

func (j *Joint) checkSlot(frame int) error {
	if frame < 0 || frame >= len(j.local) {
		return errors.Wrapf(ErrOutOfRange, "joint %q frame %d of %d", j.name, frame, len(j.local))
	}
	return nil
}

func (j *Joint) checkPosed(frame int) error {
	if err := j.checkSlot(frame); err != nil {
		return err
	}
	if !j.posed[frame] {
		return errors.Wrapf(ErrNotPosed, "joint %q frame %d", j.name, frame)
	}
	return nil
}

// resizeSlots allocates n transform slots, keeping what fits.
func (j *Joint) resizeSlots(n int) {
	local := make([]mathutil.Mat4, n)
	global := make([]mathutil.Mat4, n)
	posed := make([]bool, n)
	copy(local, j.local)
	copy(global, j.global)
	copy(posed, j.posed)
	j.local, j.global, j.posed = local, global, posed
}

func (j *Joint) clearPosed() {
	for i := range j.posed {
		j.posed[i] = false
	}
}
