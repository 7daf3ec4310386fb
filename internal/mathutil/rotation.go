package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// RotAxis4 returns a 4×4 rotation about axis 0 (X), 1 (Y) or 2 (Z).
// Angle in degrees.
func RotAxis4(axis int, deg float64) Mat4 {
	a := Deg2Rad(deg)
	var r Mat3
	switch axis {
	case 0:
		r = RotX(a)
	case 1:
		r = RotY(a)
	default:
		r = RotZ(a)
	}
	return FromMat3Translation(r, Vec3{})
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
