package trackercore

// channel is one of a Player's up to 64 voices (spec.md §3, §4.2).
type channel struct {
	module *Module

	currentSampleIndex uint8
	playing            bool

	freq     float64 // Hz
	baseFreq float64 // pre-arpeggio restore value

	currentNote uint8
	lastNote    uint8 // for tone portamento

	position  float64 // sample-index with subsample fraction
	backwards bool

	portaMemory        uint8 // Exx, Fxx, Gxx
	offsetMemory       uint8 // Oxx
	volumeMemory       uint8 // Dxy
	globalVolumeMemory uint8 // Wxy
	retriggerMemory    uint8 // Qxy
	retriggerTicks     uint8
	arpeggioMemory     uint8 // Jxy
	arpeggioSelector   uint8 // 0, 1, 2
	arpeggioState      bool
	s3mEffectMemory    uint8 // S3M only

	volume uint8 // 0..64
}

func newChannel(module *Module) channel {
	return channel{
		module:   module,
		freq:     8363,
		baseFreq: 8363,
		volume:   64,
	}
}

// portaValue resolves the effective slide amount for porta_up/porta_down,
// storing a nonzero value to the mode-routed memory register or reloading
// it when value is zero (spec.md §4.2).
func (c *channel) portaValue(value uint8) uint8 {
	slot := c.modeMemorySlot()
	if value != 0 {
		*slot = value
		return value
	}
	return *slot
}

// modeMemorySlot returns the memory register porta_up/porta_down route
// through for this channel's module mode: S3M uses s3mEffectMemory (which
// volMemorySlot and retrigMemorySlot also return under S3M), IT/ITSample
// use portaMemory. The source
// only defines this routing for S3M/IT/ITSample (every other mode hits
// `_ => todo!()`); callers must check hasModeMemory before using the slot.
func (c *channel) modeMemorySlot() *uint8 {
	if c.module.Mode == ModeS3M {
		return &c.s3mEffectMemory
	}
	return &c.portaMemory
}

func (c *channel) volMemorySlot() *uint8 {
	if c.module.Mode == ModeS3M {
		return &c.s3mEffectMemory
	}
	return &c.volumeMemory
}

func (c *channel) retrigMemorySlot() *uint8 {
	if c.module.Mode == ModeS3M {
		return &c.s3mEffectMemory
	}
	return &c.retriggerMemory
}

// hasModeMemory reports whether this channel's mode has a defined memory
// route for porta_up/porta_down/vol_slide/retrigger. The source's match on
// mode hits `_ => todo!()` for every mode but S3M/IT/ITSample — spec.md §9
// requires those effects to no-op rather than abort, so ModeMOD (the only
// other mode this core loads) must return here before mutating anything.
func (c *channel) hasModeMemory() bool {
	switch c.module.Mode {
	case ModeS3M, ModeIT, ModeITSample:
		return true
	default:
		return false
	}
}

// portaUp implements spec.md §4.2 porta_up.
func (c *channel) portaUp(linear bool, ticksPassed uint8, value uint8) {
	if !c.hasModeMemory() {
		return
	}
	value = c.portaValue(value)

	if linear {
		switch value & 0xF0 {
		case 0xE0: // extra-fine
			if ticksPassed == 0 {
				c.freq *= fineLinearUp[value&0xF]
			}
		case 0xF0: // fine
			if ticksPassed == 0 {
				c.freq *= linearUp[value&0xF]
			}
		default: // regular
			if ticksPassed > 0 {
				c.freq *= linearUp[value]
			}
		}
		return
	}

	// Amiga periods.
	switch value & 0xF0 {
	case 0xE0:
		if ticksPassed == 0 {
			c.freq = freqFromPeriod(period(c.freq) - float64(value&0xF))
		}
	case 0xF0:
		if ticksPassed == 0 {
			c.freq = freqFromPeriod(period(c.freq) - float64(value&0xF)*4)
		}
	default:
		if ticksPassed > 0 {
			c.freq = freqFromPeriod(period(c.freq) - float64(value)*4)
		}
	}
}

// portaDown implements spec.md §4.2 porta_down.
func (c *channel) portaDown(linear bool, ticksPassed uint8, value uint8) {
	if !c.hasModeMemory() {
		return
	}
	value = c.portaValue(value)

	if linear {
		switch value & 0xF0 {
		case 0xE0:
			if ticksPassed == 0 {
				c.freq *= fineLinearDown[value&0xF]
			}
		case 0xF0:
			if ticksPassed == 0 {
				c.freq *= linearDown[value&0xF]
			}
		default:
			if ticksPassed > 0 {
				c.freq *= linearDown[value]
			}
		}
		return
	}

	switch value & 0xF0 {
	case 0xE0:
		if ticksPassed == 0 {
			c.freq = freqFromPeriod(period(c.freq) + float64(value&0xF))
		}
	case 0xF0:
		if ticksPassed == 0 {
			c.freq = freqFromPeriod(period(c.freq) + float64(value&0xF)*4)
		}
	default:
		if ticksPassed > 0 {
			c.freq = freqFromPeriod(period(c.freq) + float64(value)*4)
		}
	}
}

// tonePortamento implements spec.md §4.2 tone_portamento. Memory always
// routes through portaMemory regardless of mode — a preserved quirk of
// the source this core was ported from, see SPEC_FULL.md §6 open question 1.
func (c *channel) tonePortamento(note Note, linear bool, value uint8) {
	if value != 0 {
		c.portaMemory = value
	} else {
		value = c.portaMemory
	}

	if note.Kind == NoteOn {
		c.lastNote = note.Semitone
	}

	sample := &c.module.Samples[c.currentSampleIndex]
	desiredFreq := pitchTable[c.lastNote] * float64(sample.BaseFrequency)

	if linear {
		if c.freq < desiredFreq {
			c.freq *= linearUp[value]
			if c.freq > desiredFreq {
				c.freq = desiredFreq
			}
		} else if c.freq > desiredFreq {
			c.freq *= linearDown[value]
			if c.freq < desiredFreq {
				c.freq = desiredFreq
			}
		}
		return
	}

	desiredPeriod := period(desiredFreq)
	var tmpPeriod float64
	switch {
	case c.freq < desiredFreq:
		tmpPeriod = period(c.freq) - float64(value)*4
		if tmpPeriod < desiredPeriod {
			tmpPeriod = desiredPeriod
		}
	case c.freq > desiredFreq:
		tmpPeriod = period(c.freq) + float64(value)*4
		if tmpPeriod > desiredPeriod {
			tmpPeriod = desiredPeriod
		}
	default:
		tmpPeriod = desiredPeriod
	}
	c.freq = freqFromPeriod(tmpPeriod)
}

// volSlide implements spec.md §4.2 vol_slide.
func (c *channel) volSlide(value uint8, ticksPassed uint8) {
	if !c.hasModeMemory() {
		return
	}
	slot := c.volMemorySlot()
	if value != 0 {
		*slot = value
	} else {
		value = *slot
	}

	up := value >> 4
	dn := value & 0xF

	switch {
	case dn == 0xF && up > 0: // fine up
		if ticksPassed == 0 {
			c.volume = saturatingAddU8(c.volume, up, 64)
		}
	case up == 0xF && dn > 0: // fine down
		if ticksPassed == 0 {
			c.volume = saturatingSubU8(c.volume, dn)
		}
	case dn == 0: // regular up
		if ticksPassed > 0 || c.module.FastVolumeSlides {
			c.volume = saturatingAddU8(c.volume, up, 64)
		}
	default: // regular down
		if ticksPassed > 0 || c.module.FastVolumeSlides {
			c.volume = saturatingSubU8(c.volume, dn)
		}
	}

	if c.volume > 64 {
		c.volume = 64
	}
}

// retrigger implements spec.md §4.2 retrigger.
func (c *channel) retrigger(value uint8) {
	if !c.hasModeMemory() {
		return
	}
	slot := c.retrigMemorySlot()
	if value != 0 {
		*slot = value
	} else {
		value = *slot
	}

	switch value >> 4 {
	case 1:
		c.volume = saturatingSubU8(c.volume, 1)
	case 2:
		c.volume = saturatingSubU8(c.volume, 2)
	case 3:
		c.volume = saturatingSubU8(c.volume, 4)
	case 4:
		c.volume = saturatingSubU8(c.volume, 8)
	case 5:
		c.volume = saturatingSubU8(c.volume, 16)
	case 6:
		c.volume = uint8((uint16(c.volume) * 3) / 2)
	case 7:
		c.volume /= 2
	case 9:
		c.volume = saturatingAddU8(c.volume, 1, 64)
	case 0xA:
		c.volume = saturatingAddU8(c.volume, 2, 64)
	case 0xB:
		c.volume = saturatingAddU8(c.volume, 4, 64)
	case 0xC:
		c.volume = saturatingAddU8(c.volume, 8, 64)
	case 0xD:
		c.volume = saturatingAddU8(c.volume, 16, 64)
	case 0xE:
		c.volume = uint8((uint16(c.volume) * 2) / 3)
	case 0xF:
		c.volume = saturatingAddU8(c.volume, c.volume, 64)
	}

	n := value & 0x0F
	c.retriggerTicks++
	if c.retriggerTicks >= n {
		c.position = 0
		c.retriggerTicks = 0
	}

	if c.volume > 64 {
		c.volume = 64
	}
}

// arpeggio implements spec.md §4.2 arpeggio.
func (c *channel) arpeggio(value uint8) {
	if value != 0 {
		c.arpeggioMemory = value
	} else {
		value = c.arpeggioMemory
	}

	sample := &c.module.Samples[c.currentSampleIndex]
	switch c.arpeggioSelector {
	case 0:
		c.freq = c.baseFreq
	case 1:
		c.freq = pitchTable[int(c.currentNote)+int(value>>4)] * float64(sample.BaseFrequency)
	case 2:
		c.freq = pitchTable[int(c.currentNote)+int(value&0xF)] * float64(sample.BaseFrequency)
	}

	c.arpeggioSelector = (c.arpeggioSelector + 1) % 3
	c.arpeggioState = true
}

// process advances the channel's oscillator by one output sample and
// returns the scaled signal, or 0 if the voice is silent (spec.md §4.2).
func (c *channel) process(samplerate int, interpolation Interpolation) int16 {
	if int(c.currentSampleIndex) >= len(c.module.Samples) {
		return 0
	}
	sample := &c.module.Samples[c.currentSampleIndex]
	if !c.playing || len(sample.Audio) == 0 {
		return 0
	}

	if c.backwards {
		if c.position <= float64(sample.LoopStart) {
			c.backwards = false
		} else {
			c.position -= c.freq / float64(samplerate)
		}
	} else {
		c.position += c.freq / float64(samplerate)
	}

	if sample.LoopEnd > 0 && c.position > float64(sample.LoopEnd-1) {
		switch sample.LoopType {
		case LoopForward:
			c.position -= float64(sample.LoopEnd - sample.LoopStart)
		case LoopPingPong:
			c.backwards = true
			c.position -= c.freq / float64(samplerate)
		}
	}

	if sample.LoopType == LoopNone && int(c.position) >= len(sample.Audio)-1 {
		c.playing = false
		c.backwards = false
	}

	if !c.playing {
		return 0
	}

	return fetchSample(sample.Audio, c.position, interpolation, c.volume, sample.GlobalVolume)
}

func saturatingAddU8(v, add, max uint8) uint8 {
	sum := uint16(v) + uint16(add)
	if sum > uint16(max) {
		return max
	}
	return uint8(sum)
}

func saturatingSubU8(v, sub uint8) uint8 {
	if sub >= v {
		return 0
	}
	return v - sub
}
