package ahrs

import (
	"math"

	"github.com/westphae/quaternion"
)

// ToQuaternion converts the Tait-Bryan angles roll, pitch and heading
// (radians) into the rotation quaternion published to dashboard clients.
func ToQuaternion(roll, pitch, heading float64) quaternion.Quaternion {
	cr := math.Cos(roll / 2)
	sr := math.Sin(roll / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	ch := math.Cos(heading / 2)
	sh := math.Sin(heading / 2)
	return quaternion.Quaternion{
		W: cr*cp*ch + sr*sp*sh,
		X: sr*cp*ch - cr*sp*sh,
		Y: cr*sp*ch + sr*cp*sh,
		Z: cr*cp*sh - sr*sp*ch,
	}
}

// FromQuaternion recovers the Tait-Bryan angles roll, pitch and heading
// (radians) from q. Pitch is clamped to ±π/2 at the gimbal poles.
func FromQuaternion(q quaternion.Quaternion) (roll, pitch, heading float64) {
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	s := 2 * (q.W*q.Y - q.Z*q.X)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	pitch = math.Asin(s)
	heading = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return roll, pitch, heading
}
