package trackercore

import "errors"

// noRow is the current_row sentinel meaning "not yet started": the first
// tick initializes the row cursor and runs no effects (spec.md §3).
const noRow = 0xFFFF

var (
	// ErrEmptyPlaylist is returned by NewPlayer when the module's
	// playlist has no entries.
	ErrEmptyPlaylist = errors.New("trackercore: module playlist is empty")
	// ErrEmptyPatterns is returned by NewPlayer when the module has no
	// patterns to play.
	ErrEmptyPatterns = errors.New("trackercore: module has no patterns")
	// ErrPlaylistStartsOnSentinel is returned when playlist[0] is a skip
	// or end-of-song sentinel, which spec.md §6 disallows.
	ErrPlaylistStartsOnSentinel = errors.New("trackercore: module playlist[0] is a sentinel")
)

// Diagnostic is an out-of-band report surfaced to the host instead of
// aborting the audio path (spec.md §7, redesigning the source's
// process::exit(0) end-of-song bug into observable state).
type Diagnostic struct {
	Order   int
	Row     int
	Channel int
	Message string
}

// Player owns 64 channels and the global playback state: position,
// pattern, row, speed, tempo and global volume (spec.md §3, §4.3).
type Player struct {
	module *Module

	samplerate    int
	Interpolation Interpolation
	globalVolume  uint8

	currentPosition int
	currentPattern  int
	currentRow      int // sentinel noRow

	currentTempo int
	currentSpeed int

	tickCounter int
	ticksPassed int

	channels [64]channel

	Mute uint64 // bitmask of muted channels, channel 0 in LSB

	running bool
	ended   bool

	diagnostics chan Diagnostic
}

// NewPlayer creates a Player for module at the given output sample rate.
func NewPlayer(module *Module, samplerate int) (*Player, error) {
	if len(module.Playlist) == 0 {
		return nil, ErrEmptyPlaylist
	}
	if len(module.Patterns) == 0 {
		return nil, ErrEmptyPatterns
	}
	if module.Playlist[0] == playlistSkip || module.Playlist[0] == playlistEnd {
		return nil, ErrPlaylistStartsOnSentinel
	}

	p := &Player{
		module:          module,
		samplerate:      samplerate,
		Interpolation:   InterpolationLinear,
		globalVolume:    module.InitialGlobalVolume,
		currentPosition: 0,
		currentPattern:  int(module.Playlist[0]),
		currentRow:      noRow,
		currentTempo:    int(module.InitialTempo),
		currentSpeed:    int(module.InitialSpeed),
		running:         true,
		diagnostics:     make(chan Diagnostic, 16),
	}
	for i := range p.channels {
		p.channels[i] = newChannel(module)
	}
	return p, nil
}

// Diagnostics returns the channel diagnostics are posted to.
func (p *Player) Diagnostics() <-chan Diagnostic { return p.diagnostics }

func (p *Player) diagnose(channel int, message string) {
	d := Diagnostic{Order: p.currentPosition, Row: p.currentRow, Channel: channel, Message: message}
	select {
	case p.diagnostics <- d:
	default:
	}
}

// Finished reports whether playback has reached end-of-song (spec.md §7).
func (p *Player) Finished() bool { return p.ended }

// Start resumes audio generation. A freshly constructed Player already
// runs; Start only matters after Stop.
func (p *Player) Start() { p.running = true }

// Stop pauses audio generation: process keeps being callable, but Stream
// emits silence until the next Start. A host-level pause, distinct from
// end-of-song.
func (p *Player) Stop() { p.running = false }

// IsPlaying reports whether the host has the engine running.
func (p *Player) IsPlaying() bool { return p.running && !p.ended }

// Position reports the playlist order and row currently being played.
func (p *Player) Position() (order, row int) { return p.currentPosition, p.currentRow }

// Module returns the module this Player was constructed from, for hosts
// that need to display its title, channel count or sample names.
func (p *Player) Module() *Module { return p.module }

// Speed and Tempo report the player's current row-speed and tick-tempo,
// for host status lines (spec.md §4.3's play_row SetSpeed/SetTempo).
func (p *Player) Speed() int { return p.currentSpeed }
func (p *Player) Tempo() int { return p.currentTempo }

// NoteDataFor returns the row data at a given playlist order and row, for
// host UIs that display upcoming pattern content.
func (p *Player) NoteDataFor(order, row int) (Row, bool) {
	if order < 0 || order >= len(p.module.Playlist) {
		return Row{}, false
	}
	pattern := int(p.module.Playlist[order])
	if pattern == playlistSkip || pattern == playlistEnd || pattern >= len(p.module.Patterns) {
		return Row{}, false
	}
	if row < 0 || row >= len(p.module.Patterns[pattern]) {
		return Row{}, false
	}
	return p.module.Patterns[pattern][row], true
}

// SeekTo jumps playback to the given playlist position and row.
func (p *Player) SeekTo(position, row int) {
	if position < 0 || position >= len(p.module.Playlist) {
		return
	}
	p.currentPosition = position
	p.currentPattern = int(p.module.Playlist[position])
	p.currentRow = row
	p.ticksPassed = 0
	p.ended = false
}

// Stream fills out with successive process() samples, emitting silence
// once Finished or Stopped, for use as a pull-mode audio callback adapter
// (spec.md §1 "realtime-safe: the audio path performs no allocation").
func (p *Player) Stream(out []int32) {
	if !p.IsPlaying() {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i := range out {
		out[i] = p.process()
	}
}

// process produces one mixed output sample, advancing the tick/row
// scheduler as tick and row boundaries are crossed (spec.md §4.3).
func (p *Player) process() int32 {
	if p.ended {
		return 0
	}

	var out int32
	for i := range p.channels {
		c := &p.channels[i]
		if !c.playing || p.Mute&(1<<uint(i)) != 0 {
			continue
		}

		tmp := int64(c.process(p.samplerate, p.Interpolation)) *
			int64(p.module.MixingVolume) * int64(p.globalVolume) * 2
		if p.module.Mode != ModeIT && p.module.Mode != ModeITSample {
			tmp *= 2
		}
		out = saturatingAddI32(out, tmp)
	}

	samplesPerTick := (p.samplerate * 5) / (p.currentTempo * 2)
	if p.tickCounter >= samplesPerTick {
		p.ticksPassed++
		p.tickCounter = 0
		if p.ticksPassed >= p.currentSpeed {
			p.advanceRow()
			if p.ended {
				return out
			}
			p.playRow()
		}
		p.processTick()
	} else {
		p.tickCounter++
	}

	return out
}

func saturatingAddI32(a int32, b int64) int32 {
	const maxI32 = int64(1<<31 - 1)
	const minI32 = -int64(1 << 31)
	sum := int64(a) + b
	if sum > maxI32 {
		return 1<<31 - 1
	}
	if sum < minI32 {
		return -(1 << 31)
	}
	return int32(sum)
}

// globalVolSlide applies the same fine/fast vol-slide semantics as
// channel.volSlide to the Player's global volume, clamped to
// maxGlobalVolume(mode) (spec.md §4.3).
func (p *Player) globalVolSlide(value uint8) {
	up := value >> 4
	dn := value & 0xF
	ceiling := maxGlobalVolume(p.module.Mode)

	switch {
	case dn == 0xF && up > 0:
		if p.ticksPassed == 0 {
			p.globalVolume = saturatingAddU8(p.globalVolume, up, ceiling)
		}
	case up == 0xF && dn > 0:
		if p.ticksPassed == 0 {
			p.globalVolume = saturatingSubU8(p.globalVolume, dn)
		}
	case dn == 0:
		if p.ticksPassed > 0 || p.module.FastVolumeSlides {
			p.globalVolume = saturatingAddU8(p.globalVolume, up, ceiling)
		}
	default:
		if p.ticksPassed > 0 || p.module.FastVolumeSlides {
			p.globalVolume = saturatingSubU8(p.globalVolume, dn)
		}
	}

	if p.globalVolume > ceiling {
		p.globalVolume = ceiling
	}
}

// processTick dispatches the per-tick effect for every channel in the
// current row, including tick 0 (spec.md §4.3). TonePorta and
// VolSlideTonePorta return from the whole function (not just this
// channel's column) when ticks_passed is 0 — the source short-circuits
// the rest of the row's effects in that case, and this core preserves it.
func (p *Player) processTick() {
	if p.currentRow == noRow {
		return
	}
	row := &p.module.Patterns[p.currentPattern][p.currentRow]

	for i := range row {
		col := &row[i]
		c := &p.channels[i]
		ticksPassed := uint8(p.ticksPassed)

		switch col.Effect.Kind {
		case EffectPortaUp:
			c.portaUp(p.module.LinearFreqSlides, ticksPassed, col.Effect.Param)
		case EffectPortaDown:
			c.portaDown(p.module.LinearFreqSlides, ticksPassed, col.Effect.Param)
		case EffectTonePorta:
			if p.ticksPassed <= 0 {
				return
			}
			c.tonePortamento(col.Note, p.module.LinearFreqSlides, col.Effect.Param)
		case EffectVolSlideTonePorta:
			c.volSlide(col.Effect.Param, ticksPassed)
			if p.ticksPassed <= 0 {
				return
			}
			c.tonePortamento(col.Note, p.module.LinearFreqSlides, 0)
		case EffectVolSlideVibrato, EffectVolSlide:
			c.volSlide(col.Effect.Param, ticksPassed)
		case EffectRetrig:
			c.retrigger(col.Effect.Param)
		case EffectArpeggio:
			c.arpeggio(col.Effect.Param)
		case EffectVibrato, EffectNone:
			if col.Effect.Param != 0 && p.module.Mode == ModeS3M {
				c.s3mEffectMemory = col.Effect.Param
			}
		case EffectGlobalVolSlide:
			value := col.Effect.Param
			if value != 0 {
				c.globalVolumeMemory = value
			} else {
				value = c.globalVolumeMemory
			}
			p.globalVolSlide(value)
		}
	}
}

// advanceRow implements spec.md §4.3 advance_row, including the source's
// dead pre-increment length check (SPEC_FULL.md §6 open question 2) and the
// playlist-skip/end-of-song sentinel handling (spec.md §6).
func (p *Player) advanceRow() {
	if p.currentRow == noRow {
		p.currentRow = 0
		p.ticksPassed = 0
		return
	}

	row := &p.module.Patterns[p.currentPattern][p.currentRow]

	posJumpEnabled, posJumpTo := false, 0
	patBreakEnabled, patBreakTo := false, 0

	for i := range row {
		switch row[i].Effect.Kind {
		case EffectPosJump:
			posJumpEnabled = true
			posJumpTo = int(row[i].Effect.Param)
		case EffectPatBreak:
			patBreakEnabled = true
			v := row[i].Effect.Param
			if p.module.Mode == ModeMOD || p.module.Mode == ModeS3M {
				patBreakTo = int(v&0xF) + int(v>>4)*10
			} else {
				patBreakTo = int(v)
			}
		}
	}

	p.ticksPassed = 0

	if p.currentRow == len(p.module.Patterns[p.currentPattern]) {
		p.currentRow = 0
	} else {
		p.currentRow++

		if posJumpEnabled {
			p.currentRow = 0
			p.currentPosition = posJumpTo
			if !p.reloadPattern() {
				return
			}
		}

		if patBreakEnabled {
			p.currentRow = patBreakTo
			p.currentPosition++
			if !p.reloadPattern() {
				return
			}
			if p.currentPattern == playlistEnd {
				p.currentPosition = 0
				if !p.reloadPattern() {
					return
				}
			}
		}
	}

	for p.currentPattern == playlistSkip {
		p.currentPosition++
		if !p.reloadPattern() {
			return
		}
	}

	if p.currentRow == len(p.module.Patterns[p.currentPattern]) {
		p.currentRow = 0
		p.currentPosition++
		if !p.reloadPattern() {
			return
		}
		for p.currentPattern == playlistSkip {
			p.currentPosition++
			if !p.reloadPattern() {
				return
			}
		}
		if p.currentPattern == playlistEnd {
			p.endSong()
		}
	}
}

// reloadPattern loads module.Playlist[currentPosition] into
// currentPattern, ending the song if currentPosition has run off the end
// of the playlist without ever hitting the 255 sentinel.
func (p *Player) reloadPattern() bool {
	if p.currentPosition >= len(p.module.Playlist) {
		p.endSong()
		return false
	}
	p.currentPattern = int(p.module.Playlist[p.currentPosition])
	return true
}

func (p *Player) endSong() {
	p.ended = true
	p.diagnose(-1, "end of song")
}

// playRow implements spec.md §4.3 play_row.
func (p *Player) playRow() {
	if p.ended {
		return
	}
	row := &p.module.Patterns[p.currentPattern][p.currentRow]

	for i := range row {
		col := &row[i]
		c := &p.channels[i]

		if col.Vol.Kind == VolVolume {
			c.volume = col.Vol.Param
		}

		switch col.Effect.Kind {
		case EffectSetSpeed:
			p.currentSpeed = int(col.Effect.Param)
		case EffectSetTempo:
			p.currentTempo = int(col.Effect.Param)
		case EffectArpeggio:
			c.arpeggioSelector = 0
		case EffectSetGlobalVol:
			if col.Effect.Param <= maxGlobalVolume(p.module.Mode) {
				p.globalVolume = col.Effect.Param
			}
		}

		if c.arpeggioState {
			if p.module.Mode != ModeS3M || (col.Effect.Kind != EffectPortaUp && col.Effect.Kind != EffectPortaDown) {
				c.freq = c.baseFreq
			}
			c.arpeggioState = false
		}

		if col.Instrument != 0 {
			c.currentSampleIndex = col.Instrument - 1
			if col.Vol.Kind == VolNone && int(c.currentSampleIndex) < len(p.module.Samples) {
				c.volume = p.module.Samples[c.currentSampleIndex].DefaultVolume
			}
		}

		switch col.Note.Kind {
		case NoteOn:
			if col.Effect.Kind != EffectTonePorta && col.Vol.Kind != VolTonePorta {
				c.playing = true
				if col.Effect.Kind == EffectSampleOffset {
					if col.Effect.Param != 0 {
						c.offsetMemory = col.Effect.Param
					}
					c.position = float64(c.offsetMemory) * 256
				} else {
					c.position = 0
				}

				if int(c.currentSampleIndex) >= len(p.module.Samples) {
					c.playing = false
				} else {
					c.currentNote = col.Note.Semitone
					sample := &p.module.Samples[c.currentSampleIndex]
					c.baseFreq = pitchTable[col.Note.Semitone] * float64(sample.BaseFrequency)
					c.freq = c.baseFreq
				}
			}
		case NoteCut, NoteOff:
			c.playing = false
		}
	}
}
