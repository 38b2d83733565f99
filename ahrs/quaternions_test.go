package ahrs

import (
	"fmt"
	"math"
	"testing"

	"github.com/westphae/quaternion"
)

const pi = math.Pi

var (
	c30 = math.Sqrt(3) / 2
	c60 = 0.5
)

// notSmall checks whether a result is large compared to the test tolerance.
func notSmall(x float64) bool {
	return math.Abs(x) > Tolerance
}

func TestRoundTrips(t *testing.T) {
	rolls := []float64{0, 0.1, 0.5, 1, 2, 3, -3, -1, -0.5, -0.2}
	pitches := []float64{0.1, 0.2, 0.5, 1, 1.5, -1.5, -0.5, -0.2, 0.2, 0}
	headings := []float64{1, 1.5, 2, 2.5, 3, -3, 0.1, -0.5, -2, 0}

	for i := 0; i < len(rolls); i++ {
		q := ToQuaternion(rolls[i], pitches[i], headings[i])
		r, p, h := FromQuaternion(q)
		if notSmall(r-rolls[i]) || notSmall(p-pitches[i]) || notSmall(h-headings[i]) {
			fmt.Printf("%+5.3f -> %+5.3f, %+5.3f -> %+5.3f, %+5.3f -> %+5.3f\n",
				rolls[i], r, pitches[i], p, headings[i], h)
			t.Fail()
		}
	}
}

func TestSpecificRotations(t *testing.T) {
	rolls := []float64{0, 0, 0, 0, pi / 3, pi / 3}
	pitches := []float64{0, 0, 0, pi / 3, 0, 0}
	headings := []float64{0, pi / 2, pi, 0, 0, pi / 2}
	u1s := []float64{1, 0, -1, c60, 1, 0}
	u2s := []float64{0, 1, 0, 0, 0, 1}
	u3s := []float64{0, 0, 0, -c30, 0, 0}
	v1s := []float64{0, -1, 0, 0, 0, -c60}
	v2s := []float64{1, 0, -1, 1, c60, 0}
	v3s := []float64{0, 0, 0, 0, c30, c30}
	w1s := []float64{0, 0, 0, c30, 0, c30}
	w2s := []float64{0, 0, 0, 0, -c30, 0}
	w3s := []float64{1, 1, 1, c60, c60, c60}

	x := quaternion.Quaternion{X: 1}
	y := quaternion.Quaternion{Y: 1}
	z := quaternion.Quaternion{Z: 1}

	for i := 0; i < len(rolls); i++ {
		e := ToQuaternion(rolls[i], pitches[i], headings[i])
		uu := quaternion.Prod(e, x, e.Conj())
		vv := quaternion.Prod(e, y, e.Conj())
		ww := quaternion.Prod(e, z, e.Conj())

		if notSmall(uu.X-u1s[i]) || notSmall(uu.Y-u2s[i]) || notSmall(uu.Z-u3s[i]) {
			fmt.Printf("%d x: got (%+5.3f, %+5.3f, %+5.3f), want (%+5.3f, %+5.3f, %+5.3f)\n",
				i, uu.X, uu.Y, uu.Z, u1s[i], u2s[i], u3s[i])
			t.Fail()
		}
		if notSmall(vv.X-v1s[i]) || notSmall(vv.Y-v2s[i]) || notSmall(vv.Z-v3s[i]) {
			fmt.Printf("%d y: got (%+5.3f, %+5.3f, %+5.3f), want (%+5.3f, %+5.3f, %+5.3f)\n",
				i, vv.X, vv.Y, vv.Z, v1s[i], v2s[i], v3s[i])
			t.Fail()
		}
		if notSmall(ww.X-w1s[i]) || notSmall(ww.Y-w2s[i]) || notSmall(ww.Z-w3s[i]) {
			fmt.Printf("%d z: got (%+5.3f, %+5.3f, %+5.3f), want (%+5.3f, %+5.3f, %+5.3f)\n",
				i, ww.X, ww.Y, ww.Z, w1s[i], w2s[i], w3s[i])
			t.Fail()
		}
	}
}

func TestPitchStraightUp(t *testing.T) {
	q := ToQuaternion(0, pi/2, 1.0)
	_, p, _ := FromQuaternion(q)
	if notSmall(p - pi/2) {
		fmt.Printf("pitch straight up came back as %v, want %v\n", p, pi/2)
		t.Fail()
	}
}
