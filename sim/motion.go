package sim

import "sort"

// Still is a motionless, level sensor: gravity on the z accelerometer
// and nothing anywhere else.
func Still() Sample {
	return Sample{AccelZ: 1}
}

// Spin is a level sensor turning about the streamed axis at rate deg/s.
// The z gyro reports the same rate, matching a bench setup with the yaw
// axis left at its default.
func Spin(rate float64) Sample {
	return Sample{YawRate: rate, GyroZ: rate, AccelZ: 1}
}

// Scenario defines motion by piecewise-linear interpolation over
// parallel slices: T holds times in seconds, the rest hold the channel
// values at those times. Rate is the streamed-axis rate in deg/s and is
// also reported on the z gyro; the accel channels are in g.
type Scenario struct {
	T      []float64
	Rate   []float64
	AccelX []float64
	AccelY []float64
	AccelZ []float64
}

// At interpolates the scenario at time t. Times outside [T[0], T[len-1]]
// clamp to the nearest endpoint.
func (sc *Scenario) At(t float64) Sample {
	last := len(sc.T) - 1
	if t <= sc.T[0] {
		return sc.at(0, 0)
	}
	if t >= sc.T[last] {
		return sc.at(last-1, 1)
	}
	ix := sort.SearchFloat64s(sc.T, t) - 1
	f := (t - sc.T[ix]) / (sc.T[ix+1] - sc.T[ix])
	return sc.at(ix, f)
}

func (sc *Scenario) at(ix int, f float64) Sample {
	lerp := func(v []float64) float64 {
		return (1-f)*v[ix] + f*v[ix+1]
	}
	r := lerp(sc.Rate)
	return Sample{
		YawRate: r,
		GyroZ:   r,
		AccelX:  lerp(sc.AccelX),
		AccelY:  lerp(sc.AccelY),
		AccelZ:  lerp(sc.AccelZ),
	}
}
