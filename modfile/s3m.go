package modfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/oakfield-labs/trackercore"
)

// ErrInvalidS3M is returned when the input lacks the 'SCRM' magic.
var ErrInvalidS3M = errors.New("modfile: invalid S3M file")

const s3mRowsPerPattern = 64

// LoadS3M parses a Scream Tracker 3 module into a trackercore.Module,
// adapted from the teacher's NewS3MSongFromBytes.
func LoadS3M(data []byte) (*trackercore.Module, error) {
	if len(data) < 48 || string(data[44:48]) != "SCRM" {
		return nil, ErrInvalidS3M
	}

	buf := bytes.NewReader(data)
	title := make([]byte, 28)
	if _, err := buf.Read(title); err != nil {
		return nil, err
	}
	trimmedTitle := strings.TrimRight(string(title), "\x00")

	var header struct {
		Pad             byte
		Filetype        byte
		_               uint16
		Length          uint16
		NumInstruments  uint16
		NumPatterns     uint16
		Flags           uint16
		Tracker         uint16
		SampleFormat    uint16
		_               [4]byte
		Volume          uint8
		Speed           uint8
		Tempo           uint8
		MastVolume      uint8
		_               uint8
		Panning         uint8
		_               [8]byte
		_               [2]byte
		ChannelSettings [32]byte
	}
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	channels := 0
	for channels < 32 && header.ChannelSettings[channels] != 255 {
		channels++
	}

	rawOrders := make([]byte, header.Length)
	if _, err := buf.Read(rawOrders); err != nil {
		return nil, err
	}
	playlist := make([]byte, 0, len(rawOrders)+1)
	for _, pat := range rawOrders {
		playlist = append(playlist, pat)
		if pat == 255 {
			break
		}
	}
	if len(playlist) == 0 || playlist[len(playlist)-1] != 255 {
		playlist = append(playlist, 255)
	}

	paras := make([]uint16, int(header.NumInstruments)+int(header.NumPatterns))
	if err := binary.Read(buf, binary.LittleEndian, paras); err != nil {
		return nil, err
	}

	samples := make([]trackercore.Sample, header.NumInstruments)
	for i := range samples {
		if _, err := buf.Seek(int64(paras[i])*16, io.SeekStart); err != nil {
			return nil, err
		}
		var instHeader struct {
			Type         byte
			Filename     [12]byte
			MemSegHi     byte
			MemSegLo     uint16
			SampleLength uint16
			_            uint16
			LoopBegin    uint16
			_            uint16
			LoopEnd      uint16
			_            uint16
			Volume       byte
			_            byte
			Packing      byte
			Flags        byte
			C2Speed      uint16
			_            uint16
			_            [12]byte
			Name         [28]byte
			Scrs         [4]byte
		}
		if err := binary.Read(buf, binary.LittleEndian, &instHeader); err != nil {
			return nil, err
		}
		if instHeader.Type > 1 {
			return nil, fmt.Errorf("modfile: unsupported S3M sample type %d", instHeader.Type)
		}
		if instHeader.Flags&4 == 4 {
			return nil, fmt.Errorf("modfile: 16-bit S3M samples not supported")
		}

		baseFreq := int64(defaultBaseFrequency)
		if instHeader.C2Speed != 0 {
			baseFreq = int64(instHeader.C2Speed)
		}

		s := trackercore.Sample{
			Name:          strings.TrimRight(string(instHeader.Name[:]), "\x00"),
			Audio:         make([]int8, instHeader.SampleLength),
			BaseFrequency: baseFreq,
			DefaultVolume: clampVolume(instHeader.Volume),
			GlobalVolume:  64,
			C4Speed:       int(instHeader.C2Speed),
		}
		if instHeader.LoopEnd > instHeader.LoopBegin {
			s.LoopStart = uint32(instHeader.LoopBegin)
			s.LoopEnd = uint32(instHeader.LoopEnd)
			s.LoopType = trackercore.LoopForward
		}

		if s.BaseFrequency <= 0 {
			s.BaseFrequency = int64(defaultBaseFrequency)
		}

		if instHeader.SampleLength > 0 {
			dataOffset := int64(uint(instHeader.MemSegHi)<<16|uint(instHeader.MemSegLo)) * 16
			if _, err := buf.Seek(dataOffset, io.SeekStart); err != nil {
				return nil, err
			}
			if err := binary.Read(buf, binary.LittleEndian, s.Audio); err != nil {
				return nil, err
			}
			for j := range s.Audio {
				s.Audio[j] = int8(byte(s.Audio[j]) ^ 128)
			}
		}
		samples[i] = s
	}

	patterns := make([][]trackercore.Row, header.NumPatterns)
	for p := range patterns {
		if _, err := buf.Seek(int64(paras[int(header.NumInstruments)+p])*16, io.SeekStart); err != nil {
			return nil, err
		}
		var packedLen int16
		if err := binary.Read(buf, binary.LittleEndian, &packedLen); err != nil {
			return nil, err
		}
		packedLen -= 2

		rows := make([]trackercore.Row, s3mRowsPerPattern)
		row := 0
		for packedLen > 0 {
			b, err := buf.ReadByte()
			if err != nil {
				return nil, err
			}
			packedLen--
			if b == 0 {
				row++
				if row >= s3mRowsPerPattern {
					break
				}
				continue
			}

			chn := int(b & 31)
			if chn >= channels {
				skip := []int64{0, 2, 1, 3, 2, 4, 3, 5}[b>>5]
				if _, err := buf.Seek(skip, io.SeekCurrent); err != nil {
					return nil, err
				}
				packedLen -= int16(skip)
				continue
			}

			col := &rows[row][chn]

			if b&32 == 32 {
				noter, _ := buf.ReadByte()
				instr, _ := buf.ReadByte()
				packedLen -= 2
				if noter != 255 {
					col.Note = trackercore.Note{Kind: trackercore.NoteOn, Semitone: s3mSemitoneFromNibbles(noter>>4, noter&0xF)}
				}
				col.Instrument = instr
			}

			if b&64 == 64 {
				vol, _ := buf.ReadByte()
				packedLen--
				col.Vol = trackercore.VolEffect{Kind: trackercore.VolVolume, Param: clampVolume(vol)}
			}

			if b&128 == 128 {
				efct, _ := buf.ReadByte()
				parm, _ := buf.ReadByte()
				packedLen -= 2
				col.Effect = convertS3MEffect(efct, parm)
			}
		}
		patterns[p] = rows
	}

	return &trackercore.Module{
		Mode:                trackercore.ModeS3M,
		Title:               trimmedTitle,
		Channels:            channels,
		Samples:             samples,
		Patterns:            patterns,
		Playlist:            playlist,
		InitialTempo:        header.Tempo,
		InitialSpeed:        header.Speed,
		InitialGlobalVolume: clampVolume(header.Volume),
		MixingVolume:        48,
		FastVolumeSlides:    header.Flags&0x40 != 0,
	}, nil
}

// S3M command letters A.. map onto codes 1.. in file order (A=1, B=2, ...).
const (
	s3mfxSetSpeed     = 0x01 // A
	s3mfxPosJump      = 0x02 // B
	s3mfxPatBreak     = 0x03 // C
	s3mfxVolSlide     = 0x04 // D
	s3mfxPortaDown    = 0x05 // E
	s3mfxPortaUp      = 0x06 // F
	s3mfxTonePorta    = 0x07 // G
	s3mfxVibrato      = 0x08 // H
	s3mfxTremor       = 0x09 // I
	s3mfxArpeggio     = 0x0A // J
	s3mfxVolVibrato   = 0x0B // K
	s3mfxVolPorta     = 0x0C // L
	s3mfxSetChanVol   = 0x0D // M
	s3mfxChanVolSlide = 0x0E // N
	s3mfxOffset       = 0x0F // O
	s3mfxPanSlide     = 0x10 // P
	s3mfxRetrig       = 0x11 // Q
	s3mfxTremolo      = 0x12 // R
	s3mfxSpecial      = 0x13 // S
	s3mfxSetTempo     = 0x14 // T
	s3mfxFineVibrato  = 0x15 // U
	s3mfxSetGlobalVol = 0x16 // V
	s3mfxGlobalSlide  = 0x17 // W
	s3mfxSetPan       = 0x18 // X
	s3mfxPanbrello    = 0x19 // Y
	s3mfxMIDIMacro    = 0x1A // Z
)

// convertS3MEffect maps an S3M command letter (encoded A=1, B=2, ...) and
// its parameter onto the core's Effect representation.
func convertS3MEffect(cmd, param byte) trackercore.Effect {
	switch cmd {
	case s3mfxSetSpeed:
		return trackercore.Effect{Kind: trackercore.EffectSetSpeed, Param: param}
	case s3mfxPosJump:
		return trackercore.Effect{Kind: trackercore.EffectPosJump, Param: param}
	case s3mfxPatBreak:
		return trackercore.Effect{Kind: trackercore.EffectPatBreak, Param: param}
	case s3mfxVolSlide:
		return trackercore.Effect{Kind: trackercore.EffectVolSlide, Param: param}
	case s3mfxPortaDown:
		return trackercore.Effect{Kind: trackercore.EffectPortaDown, Param: param}
	case s3mfxPortaUp:
		return trackercore.Effect{Kind: trackercore.EffectPortaUp, Param: param}
	case s3mfxTonePorta:
		return trackercore.Effect{Kind: trackercore.EffectTonePorta, Param: param}
	case s3mfxVibrato:
		return trackercore.Effect{Kind: trackercore.EffectVibrato, Param: param}
	case s3mfxTremor:
		return trackercore.Effect{Kind: trackercore.EffectTremor, Param: param}
	case s3mfxArpeggio:
		return trackercore.Effect{Kind: trackercore.EffectArpeggio, Param: param}
	case s3mfxVolVibrato:
		return trackercore.Effect{Kind: trackercore.EffectVolSlideVibrato, Param: param}
	case s3mfxVolPorta:
		return trackercore.Effect{Kind: trackercore.EffectVolSlideTonePorta, Param: param}
	case s3mfxSetChanVol:
		return trackercore.Effect{Kind: trackercore.EffectSetChanVol, Param: param}
	case s3mfxChanVolSlide:
		return trackercore.Effect{Kind: trackercore.EffectChanVolSlide, Param: param}
	case s3mfxOffset:
		return trackercore.Effect{Kind: trackercore.EffectSampleOffset, Param: param}
	case s3mfxPanSlide:
		return trackercore.Effect{Kind: trackercore.EffectPanSlide, Param: param}
	case s3mfxRetrig:
		return trackercore.Effect{Kind: trackercore.EffectRetrig, Param: param}
	case s3mfxTremolo:
		return trackercore.Effect{Kind: trackercore.EffectTremolo, Param: param}
	case s3mfxSpecial:
		switch param >> 4 {
		case 0x1:
			return trackercore.Effect{Kind: trackercore.EffectGlissandoControl, Param: param & 0xF}
		case 0x3:
			return trackercore.Effect{Kind: trackercore.EffectSetVibratoWaveform, Param: param & 0xF}
		case 0x4:
			return trackercore.Effect{Kind: trackercore.EffectSetTremoloWaveform, Param: param & 0xF}
		case 0x8:
			return trackercore.Effect{Kind: trackercore.EffectFineSetPan, Param: param & 0xF}
		case 0xA:
			return trackercore.Effect{Kind: trackercore.EffectHighOffset, Param: param & 0xF}
		case 0xB:
			if param&0xF == 0 {
				return trackercore.Effect{Kind: trackercore.EffectPatLoopStart}
			}
			return trackercore.Effect{Kind: trackercore.EffectPatLoop, Param: param & 0xF}
		case 0xC:
			return trackercore.Effect{Kind: trackercore.EffectNoteCut, Param: param & 0xF}
		case 0xD:
			return trackercore.Effect{Kind: trackercore.EffectNoteDelay, Param: param & 0xF}
		case 0xE:
			return trackercore.Effect{Kind: trackercore.EffectPatDelay, Param: param & 0xF}
		default:
			return trackercore.Effect{}
		}
	case s3mfxSetTempo:
		return trackercore.Effect{Kind: trackercore.EffectSetTempo, Param: param}
	case s3mfxFineVibrato:
		return trackercore.Effect{Kind: trackercore.EffectFineVibrato, Param: param}
	case s3mfxSetGlobalVol:
		return trackercore.Effect{Kind: trackercore.EffectSetGlobalVol, Param: param}
	case s3mfxGlobalSlide:
		return trackercore.Effect{Kind: trackercore.EffectGlobalVolSlide, Param: param}
	case s3mfxSetPan:
		return trackercore.Effect{Kind: trackercore.EffectSetPan, Param: param}
	case s3mfxPanbrello:
		return trackercore.Effect{Kind: trackercore.EffectPanbrello, Param: param}
	case s3mfxMIDIMacro:
		return trackercore.Effect{Kind: trackercore.EffectMIDIMacro, Param: param}
	default:
		return trackercore.Effect{}
	}
}
