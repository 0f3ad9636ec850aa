package trackercore

// fetchSample reads the raw sample at position and scales it by the
// channel and sample volumes (spec.md §4.2 step 6). The actual fetch is
// delegated to fetchRaw, split by GOARCH build tag the way the teacher
// splits its mixer into mixer_scalar.go/mixer_arm64.go, so a future SIMD
// or higher-order interpolation specialization has a single call site to
// replace per architecture without touching the scheduler.
func fetchSample(audio []int8, position float64, interpolation Interpolation, volume, globalVolume uint8) int16 {
	raw := fetchRaw(audio, position, interpolation)
	scaled := int32(raw) * int32(volume) * int32(globalVolume) / (64 * 64)
	return int16(scaled)
}
