//go:build !arm64

package trackercore

// fetchRaw is the scalar (non-SIMD) sample fetch. All Interpolation
// variants currently resolve to a nearest-neighbor fetch (spec.md §4.2);
// higher-quality variants may be added later without changing the control
// surface, but must not read outside audio (clamped here at the upper
// bound to guard the last-sample edge case).
func fetchRaw(audio []int8, position float64, _ Interpolation) int8 {
	idx := int(position)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(audio) {
		idx = len(audio) - 1
	}
	return audio[idx]
}
