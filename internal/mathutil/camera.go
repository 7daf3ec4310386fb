package mathutil

// Camera presets for pose rendering. BVH data is Y-up, facing +Z.
var (
	// ViewFront looks down -Z at the character's front.
	ViewFront = Mat3Identity()

	// ViewSide looks at the character's left side: Ry(-90°)
	ViewSide = RotY(Deg2Rad(-90))

	// ViewThreeQuarter is the default orbit: Rx(10°) @ Ry(-35°)
	ViewThreeQuarter = ViewOrbit(-35, 10)
)

// ViewOrbit returns Rx(pitch) @ Ry(yaw). Angles in degrees.
func ViewOrbit(yaw, pitch float64) Mat3 {
	return Mat3Mul(RotX(Deg2Rad(pitch)), RotY(Deg2Rad(yaw)))
}
