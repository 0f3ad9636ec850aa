package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oakfield-labs/trackercore"
	"github.com/oakfield-labs/trackercore/cmd/internal/config"
	"github.com/oakfield-labs/trackercore/modfile"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("tracktui: ")

	flagHz := flag.Int("hz", 44100, "output hz")
	flagStartOrd := flag.Int("start", 0, "starting order in the song")
	flagReverb := flag.String("reverb", "light", "reverb amount: none, light, medium, silly")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing song filename")
	}

	songFName := flag.Arg(0)
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

	player, err := trackercore.NewPlayer(m, *flagHz)
	if err != nil {
		log.Fatal(err)
	}
	player.SeekTo(*flagStartOrd, 0)
	player.Start()

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	out, err := newAudioOutput(player, reverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	p := tea.NewProgram(newModel(player))
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}
