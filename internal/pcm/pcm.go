// Package pcm converts trackercore's mixed int32 stream down to the
// int16 PCM device/file formats the rest of the domain stack (portaudio,
// oto, WAV) expects, the same shift-then-clamp pattern the teacher's own
// mixer used when narrowing its accumulator to int16 output.
package pcm

const shift = 13

// ToInt16 narrows a mono int32 mix buffer (trackercore.Player.Stream's
// output) to int16, saturating rather than wrapping on overflow from
// loud multi-channel mixes.
func ToInt16(in []int32, out []int16) {
	for i, v := range in {
		s := v >> shift
		switch {
		case s > 32767:
			out[i] = 32767
		case s < -32768:
			out[i] = -32768
		default:
			out[i] = int16(s)
		}
	}
}

// ToInt16Stereo duplicates the mono mix into interleaved stereo frames,
// since trackercore has no panning pipeline (spec.md's channel model
// carries no pan field).
func ToInt16Stereo(in []int32, out []int16) {
	for i, v := range in {
		s := v >> shift
		switch {
		case s > 32767:
			s = 32767
		case s < -32768:
			s = -32768
		}
		out[2*i] = int16(s)
		out[2*i+1] = int16(s)
	}
}
