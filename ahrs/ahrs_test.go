package ahrs

import (
	"fmt"
	"math"
	"testing"
)

const Tolerance = 1e-6

func TestFormatRange0to2Pi(t *testing.T) {
	angles := []float64{0, 1.5, -0.5, -7.0, 6.2831854, 13.3, 2*math.Pi - 1e-9, -2 * math.Pi}
	wants := []float64{0, 1.5, 2*math.Pi - 0.5, 4*math.Pi - 7.0, 6.2831854 - 2*math.Pi, 13.3 - 4*math.Pi, 2*math.Pi - 1e-9, 0}

	for i := 0; i < len(angles); i++ {
		got := FormatRange0to2Pi(angles[i])
		if got < 0 || got >= 2*math.Pi {
			fmt.Printf("FormatRange0to2Pi(%v) = %v, outside [0, 2*Pi)\n", angles[i], got)
			t.Fail()
		}
		if math.Abs(got-wants[i]) > Tolerance {
			fmt.Printf("FormatRange0to2Pi(%v) = %v, want %v\n", angles[i], got, wants[i])
			t.Fail()
		}
		again := FormatRange0to2Pi(got)
		if math.Abs(again-got) > Tolerance {
			fmt.Printf("FormatRange0to2Pi not idempotent at %v: %v then %v\n", angles[i], got, again)
			t.Fail()
		}
	}
}

func TestFormatFastConverge(t *testing.T) {
	comps := []float64{0.1, 6.2, 3.0, 0.0, 5.0, 1.0}
	accs := []float64{6.2, 0.1, 3.1, 3.1, 2.0, 4.5}
	wants := []float64{0.1 + 2*math.Pi, 6.2 - 2*math.Pi, 3.0, 0.0, 5.0, 1.0 + 2*math.Pi}

	for i := 0; i < len(comps); i++ {
		got := FormatFastConverge(comps[i], accs[i])
		if math.Abs(got-wants[i]) > Tolerance {
			fmt.Printf("FormatFastConverge(%v, %v) = %v, want %v\n", comps[i], accs[i], got, wants[i])
			t.Fail()
		}
		if math.Abs(got-accs[i]) >= math.Pi {
			fmt.Printf("FormatFastConverge(%v, %v) = %v, still more than Pi from %v\n", comps[i], accs[i], got, accs[i])
			t.Fail()
		}
	}
}

func TestFormatAccelRange(t *testing.T) {
	angles := []float64{0.3, -0.3, 0.3, -0.3}
	zs := []float64{1.0, 1.0, -1.0, -1.0}
	wants := []float64{0.3, -0.3 + 2*math.Pi, math.Pi - 0.3, math.Pi + 0.3}

	for i := 0; i < len(angles); i++ {
		got := FormatAccelRange(angles[i], zs[i])
		if math.Abs(got-wants[i]) > Tolerance {
			fmt.Printf("FormatAccelRange(%v, %v) = %v, want %v\n", angles[i], zs[i], got, wants[i])
			t.Fail()
		}
	}
}

func TestCompFilterSeedsFromFirstSample(t *testing.T) {
	f := NewCompFilter(0.5)
	ax, ay, az := 0.2, -0.1, 0.97
	wantX, wantY := AccelAngles(ax, ay, az)
	if wantY >= 0 {
		t.Fatalf("test setup: expected a negative raw Y angle, got %v", wantY)
	}

	compX, compY, accX, accY := f.Update(ax, ay, az, 0, 0, 0.0005)
	if math.Abs(compX-wantX) > Tolerance || math.Abs(compY-wantY) > Tolerance {
		fmt.Printf("first update: comp (%v, %v), want raw accel angles (%v, %v)\n", compX, compY, wantX, wantY)
		t.Fail()
	}
	if math.Abs(accX-wantX) > Tolerance || math.Abs(accY-wantY) > Tolerance {
		fmt.Printf("first update: acc (%v, %v), want raw accel angles (%v, %v)\n", accX, accY, wantX, wantY)
		t.Fail()
	}
}

func TestCompFilterConvergesLevel(t *testing.T) {
	f := NewCompFilter(0.5)
	const dt = 0.0005

	// Tilted seed, then hold the sensor level and motionless.
	f.Update(0.2, 0.2, 0.96, 0, 0, dt)
	var compX, compY float64
	for i := 0; i < 5000; i++ {
		compX, compY, _, _ = f.Update(0, 0, 1, 0, 0, dt)
	}

	if distFromLevel(compX) > 0.01 || distFromLevel(compY) > 0.01 {
		fmt.Printf("after settling level: comp (%v, %v), want near 0 or 2*Pi\n", compX, compY)
		t.Fail()
	}
}

func TestCompFilterTracksGyro(t *testing.T) {
	f := NewCompFilter(0.5)
	const (
		dt    = 0.0005
		omega = 0.1
	)

	f.Update(0, 0, 1, 0, 0, dt)
	var compX float64
	for i := 0; i < 50000; i++ {
		compX, _, _, _ = f.Update(0, 0, 1, omega, 0, dt)
	}

	// A constant rate against a level accelerometer settles at omega*tau.
	want := omega * 0.5
	if math.Abs(compX-want) > 0.002 {
		fmt.Printf("steady state with omegaX=%v: compX = %v, want %v\n", omega, compX, want)
		t.Fail()
	}
}

// distFromLevel measures how far an angle in [0, 2*Pi) sits from level,
// counting 2*Pi-epsilon as nearly level too.
func distFromLevel(angle float64) float64 {
	return math.Min(math.Abs(angle), math.Abs(angle-2*math.Pi))
}
