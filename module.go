package trackercore

// Mode selects the playback dialect. It affects effect-memory routing,
// volume-slide speed, pattern-break decoding, global-volume ceiling and
// mix gain, per spec.md §3.
type Mode uint8

const (
	ModeMOD Mode = iota
	ModeS3M
	ModeIT
	ModeITSample
)

// maxGlobalVolume returns the ceiling a Module's global volume (and the
// Player's running global volume) may not exceed for the given mode.
func maxGlobalVolume(mode Mode) uint8 {
	switch mode {
	case ModeIT, ModeITSample:
		return 128
	default:
		return 64
	}
}

// LoopType describes how a Sample's playback position wraps once it
// reaches LoopEnd.
type LoopType uint8

const (
	LoopNone LoopType = iota
	LoopForward
	LoopPingPong
)

// Interpolation selects the per-sample fetch algorithm. All variants are
// control-surface selectable; the baseline implementation treats every
// variant as a nearest-neighbor fetch (spec.md §4.2), but none may read
// outside the sample's audio slice.
type Interpolation uint8

const (
	InterpolationNone Interpolation = iota
	InterpolationLinear
	InterpolationSinc16
	InterpolationSinc32
	InterpolationSinc64
	InterpolationSinc64Fast
)

// Sample is one indexed sample slot referenced by Column.Instrument.
type Sample struct {
	Name      string
	Audio     []int8 // signed PCM
	LoopStart uint32
	LoopEnd   uint32 // exclusive; 0 means no loop
	LoopType  LoopType

	BaseFrequency int64 // Hz at reference note

	DefaultVolume uint8 // 0..64
	GlobalVolume  uint8 // 0..64

	// C4Speed mirrors the raw C2Speed field the S3M loader reads before
	// normalizing it into BaseFrequency (0 when the file gives none, and
	// for MOD samples).
	C4Speed int
}

// NoteKind enumerates what a Column's note field does to a channel.
type NoteKind uint8

const (
	NoteNone NoteKind = iota
	NoteOn
	NoteFade
	NoteCut
	NoteOff
)

// Note is the note field of a Column. Semitone is only meaningful when
// Kind is NoteOn, and ranges 0..119.
type Note struct {
	Kind     NoteKind
	Semitone uint8
}

// VolEffectKind enumerates the volume-column effect encoded in a Column.
// Only VolVolume is functional in this core (spec.md §4.3 play_row); the
// rest are recognized so loaders can populate them but are no-ops in
// processing, per spec.md §9's "unimplemented vol-column effects must be
// no-ops" guidance.
type VolEffectKind uint8

const (
	VolNone VolEffectKind = iota
	VolFineSlideUp
	VolFineSlideDown
	VolSlideUp
	VolSlideDown
	VolPortaDown
	VolPortaUp
	VolTonePorta
	VolVibratoDepth
	VolSetPan
	VolVolume
)

// VolEffect is the decoded volume-column command of a Column.
type VolEffect struct {
	Kind  VolEffectKind
	Param uint8 // for VolVolume, the volume 0..64
}

// EffectKind enumerates the pattern effect column of a Column. This
// mirrors the full effect set of the Rust source this core was ported
// from (original_source/engine/player.rs's Effect enum, reconstructed
// from its format_effect/process_tick/play_row/advance_row match arms);
// only a subset participates in scheduling/mixing (spec.md §4.3), the
// rest are recognized and otherwise ignored, matching spec.md's
// Non-goals for S-effects, envelopes, NNAs and panning.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectSetSpeed
	EffectPosJump
	EffectPatBreak
	EffectVolSlide
	EffectPortaDown
	EffectPortaUp
	EffectTonePorta
	EffectVibrato
	EffectTremor
	EffectArpeggio
	EffectVolSlideVibrato
	EffectVolSlideTonePorta
	EffectSetChanVol
	EffectChanVolSlide
	EffectSampleOffset
	EffectPanSlide
	EffectRetrig
	EffectTremolo
	EffectGlissandoControl
	EffectSetFinetune
	EffectSetVibratoWaveform
	EffectSetTremoloWaveform
	EffectSetPanbrelloWaveform
	EffectFinePatternDelay
	EffectPastNoteCut
	EffectPastNoteOff
	EffectPastNoteFade
	EffectNNANoteCut
	EffectNNANoteContinue
	EffectNNANoteOff
	EffectNNANoteFade
	EffectVolEnvOff
	EffectVolEnvOn
	EffectPanEnvOff
	EffectPanEnvOn
	EffectPitchEnvOff
	EffectPitchEnvOn
	EffectSetPan
	EffectSoundControl
	EffectHighOffset
	EffectPatLoopStart
	EffectPatLoop
	EffectNoteCut
	EffectNoteDelay
	EffectPatDelay
	EffectSetActiveMacro
	EffectDecTempo
	EffectIncTempo
	EffectSetTempo
	EffectFineVibrato
	EffectSetGlobalVol
	EffectGlobalVolSlide
	EffectFineSetPan
	EffectPanbrello
	EffectMIDIMacro
)

// Effect is the decoded pattern effect column of a Column.
type Effect struct {
	Kind  EffectKind
	Param uint8
}

// Column is one channel's slot in a Row.
type Column struct {
	Note       Note
	Instrument uint8 // 0 = none, else 1-based sample index
	Vol        VolEffect
	Effect     Effect
}

// noNoteVolume is a raw volume byte sentinel meaning "none was specified".
// Column.Vol does not use it: VolEffect{} (VolNone) already conveys this,
// and no loader or test in this repository references the constant.
const noNoteVolume = 0xFF

// Row is one horizontal pattern slice, one Column per channel. The MOD
// family caps voices at 64, so every Row is fixed-size regardless of how
// many channels a given Module actually uses (spec.md §3, §9).
type Row [64]Column

// Module is the read-only playback input, produced by an external loader
// (spec.md §1 marks MOD/S3M/IT parsing out of scope for this core; see
// the modfile package for a loader that builds one of these).
type Module struct {
	Mode       Mode
	S3MVariant byte // informational only; no formula in this core reads it

	Title    string
	Channels int
	Samples  []Sample
	Patterns [][]Row
	Playlist []byte // sentinels: 254 = skip, 255 = end-of-song

	InitialTempo        uint8
	InitialSpeed        uint8
	InitialGlobalVolume uint8
	MixingVolume        uint8
	LinearFreqSlides    bool
	FastVolumeSlides    bool
}

// playlist sentinels (spec.md §6).
const (
	playlistSkip = 254
	playlistEnd  = 255
)
