// trackdump parses a MOD/S3M file and prints its structure for debugging.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oakfield-labs/trackercore"
	"github.com/oakfield-labs/trackercore/modfile"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("trackdump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing song filename")
	}

	songFName := os.Args[1]
	songF, err := os.ReadFile(songFName)
	if err != nil {
		log.Fatal(err)
	}

	var m *trackercore.Module
	switch strings.ToLower(filepath.Ext(songFName)) {
	case ".mod":
		m, err = modfile.LoadMOD(songF)
	case ".s3m":
		m, err = modfile.LoadS3M(songF)
	default:
		err = fmt.Errorf("unsupported song %q", songFName)
	}
	if err != nil {
		log.Fatal(err)
	}

	dumpModule(m)
}

func dumpModule(m *trackercore.Module) {
	fmt.Printf("Title: %q\n", m.Title)
	fmt.Printf("Mode: %s, Channels: %d\n", modeName(m.Mode), m.Channels)
	fmt.Printf("Speed: %d, Tempo: %d, GlobalVolume: %d, MixingVolume: %d\n",
		m.InitialSpeed, m.InitialTempo, m.InitialGlobalVolume, m.MixingVolume)
	fmt.Printf("Playlist (%d entries): %v\n", len(m.Playlist), m.Playlist)

	fmt.Printf("\nSamples (%d):\n", len(m.Samples))
	for i, s := range m.Samples {
		if len(s.Audio) == 0 && s.Name == "" {
			continue
		}
		fmt.Printf("  %3d %-22q len=%-8d loop=[%d,%d) type=%d vol=%d baseFreq=%d\n",
			i+1, s.Name, len(s.Audio), s.LoopStart, s.LoopEnd, s.LoopType, s.DefaultVolume, s.BaseFrequency)
	}

	fmt.Printf("\nPatterns (%d):\n", len(m.Patterns))
	for p, pat := range m.Patterns {
		fmt.Printf("  pattern %d: %d rows\n", p, len(pat))
	}
}

func modeName(mode trackercore.Mode) string {
	switch mode {
	case trackercore.ModeMOD:
		return "MOD"
	case trackercore.ModeS3M:
		return "S3M"
	case trackercore.ModeIT:
		return "IT"
	case trackercore.ModeITSample:
		return "IT-sample"
	default:
		return "unknown"
	}
}
