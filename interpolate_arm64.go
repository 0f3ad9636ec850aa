//go:build arm64

package trackercore

// fetchRaw on arm64 delegates to the scalar routine. The teacher's own
// arm64 mixer (mixer_arm64.go) wraps a NEON routine behind a cgo header
// ("mixer_neon.h") that repo does not ship, so there is nothing buildable
// to port; this file exists to keep the same GOARCH-split shape design
// note 9 calls for, ready for a real NEON fetch to slot in later.
func fetchRaw(audio []int8, position float64, interpolation Interpolation) int8 {
	return fetchRawScalar(audio, position, interpolation)
}

func fetchRawScalar(audio []int8, position float64, _ Interpolation) int8 {
	idx := int(position)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(audio) {
		idx = len(audio) - 1
	}
	return audio[idx]
}
