// Package modfile loads MOD and S3M files into trackercore.Module
// values. Parsing these formats is outside the playback core's scope
// (spec.md §1 treats it as an external collaborator referenced only by
// its data contract, trackercore.Module); this package is the loader the
// core needs something to drive it with, adapted from the teacher's
// top-level mod.go/s3m.go loaders.
package modfile

import "math"

// defaultBaseFrequency is the Amiga Paula playback rate (in Hz) a
// standard-tuned MOD or S3M sample plays at for pitchTable index 60 (the
// core's unity-multiplier reference). S3M instruments override this with
// their own C2Speed field when present.
const defaultBaseFrequency = 8363.0

// trackerPeriod mirrors trackercore.PERIOD, the Amiga-period conversion
// constant (period = trackerPeriod / freq); duplicated here
// because the loader needs it purely for semitone derivation, not for
// anything the playback core itself must see.
const trackerPeriod = 14_317_056

// semitoneRatio is 2^(1/12), the frequency ratio of one semitone.
const semitoneRatio = 1.0594630943592953

// semitoneFromPeriod converts an Amiga period value into the semitone
// index the core's pitch table expects, relative to baseFreq. This is a
// logarithmic approximation of libxmp's lookup-table conversion (see the
// teacher's periodToPlayerNote) rather than a bit-exact port: since the
// core computes playback frequency as pitchTable[semitone]*BaseFrequency
// rather than directly from a period, loaders must round-trip through a
// semitone index, and the log form is equivalent within a fraction of a
// cent.
func semitoneFromPeriod(period int, baseFreq float64) uint8 {
	if period <= 0 {
		return 60
	}
	freq := float64(trackerPeriod) / float64(period)
	n := 60.0 + 12.0*math.Log2(freq/baseFreq)
	if n < 0 {
		n = 0
	}
	if n > 119 {
		n = 119
	}
	return uint8(math.Round(n))
}

// s3mSemitoneFromNibbles converts an S3M packed note (high nibble octave,
// low nibble note-in-octave) directly to a semitone index, without going
// through a period at all, per spec.md's note representation.
func s3mSemitoneFromNibbles(octave, noteInOctave uint8) uint8 {
	n := 12 + 12*int(octave) + int(noteInOctave)
	if n < 0 {
		n = 0
	}
	if n > 119 {
		n = 119
	}
	return uint8(n)
}
