package trackercore

// GenerateAudio fills out with one buffer's worth of mixed mono samples,
// matching the sdl/portaudio callback shape the host wires the Player
// into (spec.md §1, "pull-mode sink" in the audio callback). It is a
// thin alias over Stream kept separate so host code reads the same way
// the teacher's own callback plumbing does.
func (p *Player) GenerateAudio(out []int32) {
	p.Stream(out)
}
