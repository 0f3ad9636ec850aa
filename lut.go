package trackercore

import "math"

// PERIOD is the Amiga period conversion base: period = PERIOD / freq.
const PERIOD = 14_317_056

// semitoneRatio is the frequency ratio of one semitone, 2^(1/12).
const semitoneRatio = 1.0594630943592953

// pitchTable maps a semitone index to a frequency multiplier such that
// freq = pitchTable[note] * sample.BaseFrequency. Note 60 is the reference
// (middle C) where the multiplier is 1.0. Sized past the 0..119 note range
// named in spec.md so arpeggio's current_note+offset reads never need a
// bounds check beyond this table.
var pitchTable [160]float64

// linearUp/linearDown give the per-tick multiplicative frequency step for a
// regular linear portamento by parameter x in 0..255. One semitone of slide
// equals 64 linear units, so linearUp[64] == semitoneRatio.
var linearUp, linearDown [256]float64

// fineLinearUp/fineLinearDown give the one-shot multiplicative step for an
// extra-fine linear portamento by parameter x in 0..15. Extra-fine slides
// operate at one quarter the granularity of a regular unit.
var fineLinearUp, fineLinearDown [16]float64

func init() {
	for i := range pitchTable {
		pitchTable[i] = math.Pow(semitoneRatio, float64(i-60))
	}
	for x := 0; x < 256; x++ {
		linearUp[x] = math.Pow(2, float64(x)/(64*12))
		linearDown[x] = 1 / linearUp[x]
	}
	for x := 0; x < 16; x++ {
		fineLinearUp[x] = math.Pow(2, float64(x)/(64*12*4))
		fineLinearDown[x] = 1 / fineLinearUp[x]
	}
}

// period converts a frequency in Hz to an Amiga period value.
func period(freq float64) float64 {
	if freq <= 0 {
		return PERIOD
	}
	return PERIOD / freq
}

// freqFromPeriod converts an Amiga period value back to a frequency in Hz.
func freqFromPeriod(p float64) float64 {
	if p <= 0 {
		return PERIOD
	}
	return PERIOD / p
}
