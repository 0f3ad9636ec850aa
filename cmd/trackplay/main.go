// trackplay is a realtime terminal player for MOD/S3M files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oakfield-labs/trackercore"
	"github.com/oakfield-labs/trackercore/cmd/internal/config"
	"github.com/oakfield-labs/trackercore/modfile"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagStartOrd = flag.Int("start", 0, "starting order in the song, ignored if outside the playlist")
	flagBufSize  = flag.Int("bufsize", 1024, "portaudio frames per buffer")
	flagReverb   = flag.String("reverb", "light", "reverb amount: none, light, medium, silly")
	flagNoUI     = flag.Bool("noui", false, "disable the terminal UI")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("trackplay: ")
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

	ap := NewAudioPlayer(player, reverb, *flagNoUI)
	defer func() {
		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		fmt.Fprint(os.Stdout, showCursor)
	}()

	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
