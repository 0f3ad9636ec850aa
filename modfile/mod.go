package modfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/oakfield-labs/trackercore"
)

const rowsPerPattern = 64

// LoadMOD parses a ProTracker-family MOD file into a trackercore.Module,
// adapted from the teacher's NewMODSongFromBytes.
func LoadMOD(data []byte) (*trackercore.Module, error) {
	buf := bytes.NewReader(data)

	title := make([]byte, 20)
	if _, err := buf.Read(title); err != nil {
		return nil, err
	}
	trimmedTitle := strings.TrimRight(string(title), "\x00")

	samples := make([]trackercore.Sample, 31)
	rawLoopStart := make([]int, 31)
	rawLoopEnd := make([]int, 31)
	for i := 0; i < 31; i++ {
		s, loopStart, loopEnd, err := readMODSampleInfo(buf)
		if err != nil {
			return nil, err
		}
		samples[i] = *s
		rawLoopStart[i] = loopStart
		rawLoopEnd[i] = loopEnd
	}

	var orderHeader struct {
		Count     uint8
		_         uint8
		OrderData [128]byte
	}
	if err := binary.Read(buf, binary.BigEndian, &orderHeader); err != nil {
		return nil, err
	}
	playlist := make([]byte, orderHeader.Count)
	copy(playlist, orderHeader.OrderData[:orderHeader.Count])

	numPatterns := 0
	if len(playlist) > 0 {
		numPatterns = int(playlist[0])
	}
	for _, o := range orderHeader.OrderData {
		if int(o) > numPatterns {
			numPatterns = int(o)
		}
	}
	numPatterns++

	sig := make([]byte, 4)
	if n, err := buf.Read(sig); n != 4 || err != nil {
		return nil, fmt.Errorf("modfile: short MOD signature: %w", err)
	}
	var channels int
	switch string(sig[2:]) {
	case "K.":
		channels = 4
	case "HN":
		channels = int(sig[0]) - 48
	case "CH":
		channels = (int(sig[0])-48)*10 + (int(sig[1]) - 48)
	default:
		return nil, fmt.Errorf("modfile: unrecognized MOD signature %q", string(sig))
	}

	const bytesPerNote = 4
	patterns := make([][]trackercore.Row, numPatterns)
	scratch := make([]byte, rowsPerPattern*channels*bytesPerNote)
	for p := 0; p < numPatterns; p++ {
		rows := make([]trackercore.Row, rowsPerPattern)
		if n, err := buf.Read(scratch); n != len(scratch) || err != nil {
			return nil, fmt.Errorf("modfile: short pattern %d: %w", p, err)
		}
		for r := 0; r < rowsPerPattern; r++ {
			for ch := 0; ch < channels; ch++ {
				off := (r*channels + ch) * bytesPerNote
				rows[r][ch] = columnFromMODBytes(scratch[off : off+bytesPerNote])
			}
		}
		patterns[p] = rows
	}

	for i := range samples {
		n := len(samples[i].Audio)
		if n > buf.Len() {
			n = buf.Len()
		}
		samples[i].Audio = samples[i].Audio[:n]
		if n > 0 {
			if err := binary.Read(buf, binary.LittleEndian, samples[i].Audio); err != nil {
				return nil, err
			}
		}
		correctModLoop(&samples[i], rawLoopStart[i], rawLoopEnd[i])
	}

	return &trackercore.Module{
		Mode:                trackercore.ModeMOD,
		Title:               trimmedTitle,
		Channels:            channels,
		Samples:             samples,
		Patterns:            patterns,
		Playlist:            playlist,
		InitialTempo:        125,
		InitialSpeed:        6,
		InitialGlobalVolume: 64,
		MixingVolume:        48,
	}, nil
}

func readMODSampleInfo(r *bytes.Reader) (sample *trackercore.Sample, loopStart, loopEnd int, err error) {
	var data struct {
		Name      [22]byte
		Length    uint16
		FineTune  uint8
		Volume    uint8
		LoopStart uint16
		LoopLen   uint16
	}
	if err := binary.Read(r, binary.BigEndian, &data); err != nil {
		return nil, 0, 0, err
	}

	length := int(data.Length) * 2
	start := int(data.LoopStart) * 2
	loopLen := int(data.LoopLen) * 2
	if loopLen < 4 {
		loopLen = 0
	}

	s := &trackercore.Sample{
		Name:          strings.TrimRight(string(data.Name[:]), "\x00"),
		Audio:         make([]int8, length),
		BaseFrequency: int64(defaultBaseFrequency),
		DefaultVolume: clampVolume(data.Volume),
		GlobalVolume:  64,
	}
	return s, start, start + loopLen, nil
}

// correctModLoop mirrors the MilkyTracker-derived overshoot correction
// the teacher's readMODSampleInfo applies when a sample's recorded loop
// runs past the (possibly truncated-by-EOF) sample length.
func correctModLoop(s *trackercore.Sample, loopStart, loopEnd int) {
	length := len(s.Audio)
	loopLen := loopEnd - loopStart
	if loopLen <= 0 {
		return
	}
	if loopStart+loopLen > length {
		dx := loopStart + loopLen - length
		loopStart -= dx
		if loopStart+loopLen > length {
			dx = loopStart + loopLen - length
			loopLen -= dx
		}
	}
	if loopLen < 2 || loopStart < 0 {
		return
	}
	s.LoopStart = uint32(loopStart)
	s.LoopEnd = uint32(loopStart + loopLen)
	s.LoopType = trackercore.LoopForward
}

func clampVolume(v uint8) uint8 {
	if v > 64 {
		return 64
	}
	return v
}

func columnFromMODBytes(nb []byte) trackercore.Column {
	period := int(nb[0]&0xF)<<8 + int(nb[1])
	instrument := nb[0]&0xF0 + nb[2]>>4
	effectNibble := nb[2] & 0xF
	param := nb[3]

	col := trackercore.Column{Instrument: instrument}
	if period > 0 {
		col.Note = trackercore.Note{Kind: trackercore.NoteOn, Semitone: semitoneFromPeriod(period, defaultBaseFrequency)}
	}
	col.Effect, col.Vol = convertMODEffect(effectNibble, param)
	return col
}

// convertMODEffect maps a ProTracker effect nibble+param pair onto the
// core's unified Effect/VolEffect representation (spec.md §4.3's effect
// set derives from the richer IT-family model; MOD's SetVolume effect
// (0xC) has no pattern-effect analogue there, so it is routed directly
// into the volume column instead).
func convertMODEffect(effect, param byte) (trackercore.Effect, trackercore.VolEffect) {
	switch effect {
	case 0x0:
		if param != 0 {
			return trackercore.Effect{Kind: trackercore.EffectArpeggio, Param: param}, trackercore.VolEffect{}
		}
	case 0x1:
		return trackercore.Effect{Kind: trackercore.EffectPortaUp, Param: param}, trackercore.VolEffect{}
	case 0x2:
		return trackercore.Effect{Kind: trackercore.EffectPortaDown, Param: param}, trackercore.VolEffect{}
	case 0x3:
		return trackercore.Effect{Kind: trackercore.EffectTonePorta, Param: param}, trackercore.VolEffect{}
	case 0x4:
		return trackercore.Effect{Kind: trackercore.EffectVibrato, Param: param}, trackercore.VolEffect{}
	case 0x5:
		return trackercore.Effect{Kind: trackercore.EffectVolSlideTonePorta, Param: param}, trackercore.VolEffect{}
	case 0x6:
		return trackercore.Effect{Kind: trackercore.EffectVolSlideVibrato, Param: param}, trackercore.VolEffect{}
	case 0x7:
		return trackercore.Effect{Kind: trackercore.EffectTremolo, Param: param}, trackercore.VolEffect{}
	case 0x8:
		return trackercore.Effect{Kind: trackercore.EffectSetPan, Param: param}, trackercore.VolEffect{}
	case 0x9:
		return trackercore.Effect{Kind: trackercore.EffectSampleOffset, Param: param}, trackercore.VolEffect{}
	case 0xA:
		return trackercore.Effect{Kind: trackercore.EffectVolSlide, Param: param}, trackercore.VolEffect{}
	case 0xB:
		return trackercore.Effect{Kind: trackercore.EffectPosJump, Param: param}, trackercore.VolEffect{}
	case 0xC:
		return trackercore.Effect{}, trackercore.VolEffect{Kind: trackercore.VolVolume, Param: clampVolume(param)}
	case 0xD:
		return trackercore.Effect{Kind: trackercore.EffectPatBreak, Param: param}, trackercore.VolEffect{}
	case 0xE:
		sub, subparam := param>>4, param&0xF
		switch sub {
		case 0x1:
			return trackercore.Effect{Kind: trackercore.EffectPortaUp, Param: 0xF0 | subparam}, trackercore.VolEffect{}
		case 0x2:
			return trackercore.Effect{Kind: trackercore.EffectPortaDown, Param: 0xF0 | subparam}, trackercore.VolEffect{}
		case 0x6:
			if subparam == 0 {
				return trackercore.Effect{Kind: trackercore.EffectPatLoopStart}, trackercore.VolEffect{}
			}
			return trackercore.Effect{Kind: trackercore.EffectPatLoop, Param: subparam}, trackercore.VolEffect{}
		case 0x9:
			return trackercore.Effect{Kind: trackercore.EffectRetrig, Param: subparam}, trackercore.VolEffect{}
		case 0xA:
			return trackercore.Effect{Kind: trackercore.EffectVolSlide, Param: (subparam << 4) | 0xF}, trackercore.VolEffect{}
		case 0xB:
			return trackercore.Effect{Kind: trackercore.EffectVolSlide, Param: 0xF0 | subparam}, trackercore.VolEffect{}
		case 0xC:
			return trackercore.Effect{Kind: trackercore.EffectNoteCut, Param: subparam}, trackercore.VolEffect{}
		case 0xD:
			return trackercore.Effect{Kind: trackercore.EffectNoteDelay, Param: subparam}, trackercore.VolEffect{}
		case 0xE:
			return trackercore.Effect{Kind: trackercore.EffectPatDelay, Param: subparam}, trackercore.VolEffect{}
		}
	case 0xF:
		if param < 0x20 {
			return trackercore.Effect{Kind: trackercore.EffectSetSpeed, Param: param}, trackercore.VolEffect{}
		}
		return trackercore.Effect{Kind: trackercore.EffectSetTempo, Param: param}, trackercore.VolEffect{}
	}
	return trackercore.Effect{}, trackercore.VolEffect{}
}
