// Package ahrs estimates orientation from streamed IMU samples. A
// two-axis complementary filter blends the tilt angle implied by the
// gravity vector with the integrated gyro rate, with the range and
// fast-convergence corrections needed to live on a [0, 2π) circle.
package ahrs

import "math"

// CompFilter fuses accelerometer tilt and gyro rate for the X and Y
// axes. Angles are radians in [0, 2π) after the first update. The zero
// value is unseeded: the first Update adopts the accelerometer angles
// unchanged and applies no blend.
type CompFilter struct {
	tau    float64
	angleX float64
	angleY float64
	seeded bool
}

// NewCompFilter returns a filter with time constant tau in seconds.
// Larger tau trusts the gyro longer, smaller tau follows the
// accelerometer more closely.
func NewCompFilter(tau float64) *CompFilter {
	return &CompFilter{tau: tau}
}

// AccelAngles returns the X and Y tilt angles implied by the gravity
// vector alone. Inputs are specific forces in m/s²; results come
// straight from atan2, before any range correction.
func AccelAngles(ax, ay, az float64) (angleX, angleY float64) {
	angleX = math.Atan2(ax, math.Sqrt(ay*ay+az*az))
	angleY = math.Atan2(ay, math.Sqrt(ax*ax+az*az))
	return angleX, angleY
}

// FormatAccelRange resolves the atan2 half-range ambiguity with the sign
// of the Z gravity component: inverted (accelZ < 0) reflects the angle
// through π, and a negative angle right side up shifts up one turn.
func FormatAccelRange(accelAngle, accelZ float64) float64 {
	if accelZ < 0 {
		return math.Pi - accelAngle
	}
	if accelZ > 0 && accelAngle < 0 {
		return 2*math.Pi + accelAngle
	}
	return accelAngle
}

// FormatFastConverge shifts compAngle by one full turn when it sits more
// than π from accAngle, so the blend chases the nearby wrap of its
// target rather than the far one.
func FormatFastConverge(compAngle, accAngle float64) float64 {
	if compAngle > accAngle+math.Pi {
		return compAngle - 2*math.Pi
	}
	if accAngle > compAngle+math.Pi {
		return compAngle + 2*math.Pi
	}
	return compAngle
}

// FormatRange0to2Pi folds angle into [0, 2π).
func FormatRange0to2Pi(angle float64) float64 {
	for angle >= 2*math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}

// Update advances the filter by one sample. ax, ay, az are specific
// forces in m/s²; omegaX and omegaY are the angular rates paired with
// each tilt axis in rad/s, sign convention applied by the caller; dt is
// the elapsed time in seconds. Returns the complementary angles and the
// range-corrected accelerometer angles, all radians.
func (f *CompFilter) Update(ax, ay, az, omegaX, omegaY, dt float64) (compX, compY, accX, accY float64) {
	accX, accY = AccelAngles(ax, ay, az)
	if !f.seeded {
		f.seeded = true
		f.angleX = accX
		f.angleY = accY
		return f.angleX, f.angleY, accX, accY
	}
	accX = FormatAccelRange(accX, az)
	accY = FormatAccelRange(accY, az)
	alpha := f.tau / (f.tau + dt)
	f.angleX = blend(f.angleX, accX, omegaX, alpha, dt)
	f.angleY = blend(f.angleY, accY, omegaY, alpha, dt)
	return f.angleX, f.angleY, accX, accY
}

func blend(comp, acc, omega, alpha, dt float64) float64 {
	comp = FormatFastConverge(comp, acc)
	gyro := comp + omega*dt
	return FormatRange0to2Pi(alpha*gyro + (1-alpha)*acc)
}

// Angles returns the current complementary angles without advancing the
// filter.
func (f *CompFilter) Angles() (compX, compY float64) {
	return f.angleX, f.angleY
}
