package trackercore

import (
	"math"
	"testing"
)

func TestPitchTableUnityAtSixty(t *testing.T) {
	if math.Abs(pitchTable[60]-1.0) > 1e-9 {
		t.Errorf("pitchTable[60] = %v, want 1.0", pitchTable[60])
	}
}

func TestPitchTableMonotonic(t *testing.T) {
	for i := 1; i < len(pitchTable); i++ {
		if pitchTable[i] <= pitchTable[i-1] {
			t.Fatalf("pitchTable not monotonic at %d: %v <= %v", i, pitchTable[i], pitchTable[i-1])
		}
	}
}

func TestLinearUpOneSemitoneAt64Units(t *testing.T) {
	if math.Abs(linearUp[64]-semitoneRatio) > 1e-9 {
		t.Errorf("linearUp[64] = %v, want %v", linearUp[64], semitoneRatio)
	}
}

func TestLinearUpDownInverse(t *testing.T) {
	for _, x := range []int{0, 1, 32, 64, 128, 255} {
		got := linearUp[x] * linearDown[x]
		if math.Abs(got-1.0) > 1e-9 {
			t.Errorf("linearUp[%d]*linearDown[%d] = %v, want 1.0", x, x, got)
		}
	}
}

func TestPeriodRoundTrip(t *testing.T) {
	for _, freq := range []float64{110, 440, 8363, 22050} {
		p := period(freq)
		got := freqFromPeriod(p)
		if math.Abs(got-freq) > 1e-6 {
			t.Errorf("freqFromPeriod(period(%v)) = %v", freq, got)
		}
	}
}
