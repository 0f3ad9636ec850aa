// trackwav renders a MOD/S3M file to a stereo 16-bit WAV file without an
// audio device.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oakfield-labs/trackercore"
	"github.com/oakfield-labs/trackercore/internal/pcm"
	"github.com/oakfield-labs/trackercore/modfile"
	"github.com/oakfield-labs/trackercore/wav"
)

const outputHz = 44100

func main() {
	log.SetFlags(0)
	log.SetPrefix("trackwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	flag.Parse()
	if len(flag.Args()) == 0 {
		log.Fatal("Missing song filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	songF, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	var m *trackercore.Module
	switch strings.ToLower(filepath.Ext(flag.Arg(0))) {
	case ".mod":
		m, err = modfile.LoadMOD(songF)
	case ".s3m":
		m, err = modfile.LoadS3M(songF)
	default:
		err = fmt.Errorf("unsupported song %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatal(err)
	}

	player, err := trackercore.NewPlayer(m, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	player.Start()

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	const chunkFrames = 2048
	mix := make([]int32, chunkFrames)
	stereo := make([]int16, chunkFrames*2)

	lastOrder := -1
	for player.IsPlaying() {
		player.Stream(mix)
		pcm.ToInt16Stereo(mix, stereo)
		if err := wavW.WriteFrame(stereo); err != nil {
			log.Fatal(err)
		}

		if order, _ := player.Position(); order != lastOrder {
			fmt.Printf("%d/%d\n", order+1, len(m.Playlist))
			lastOrder = order
		}
	}
}
