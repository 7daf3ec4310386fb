package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/gltfexport"
	"bvh-pose-renderer/internal/logging"
)

func main() {
	frame := flag.Int("frame", 0, "Frame to export")
	seconds := flag.Float64("time", -1, "Export the frame at this time in seconds instead of -frame")
	output := flag.String("o", "", "Output file, .glb or .gltf (default: <input>_<frame>.glb)")
	trs := flag.Bool("trs", false, "Write translation/rotation instead of matrices")
	logLevel := flag.String("log-level", "", "Log level")
	flag.Parse()

	if _, err := logging.InitLogger("bvh-export", *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: export [-frame N | -time S] [-o out.glb] file.bvh")
		os.Exit(2)
	}
	input := flag.Arg(0)

	sk, err := bvh.ParseFile(input)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load BVH")
	}

	f := *frame
	if *seconds >= 0 {
		if f, err = sk.FrameAt(*seconds); err != nil {
			log.Fatal().Err(err).Float64("time", *seconds).Msg("no frame at time")
		}
	}
	if err := sk.RecalculateAll(f); err != nil {
		log.Fatal().Err(err).Int("frame", f).Msg("recalculation failed")
	}

	out := *output
	if out == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		out = fmt.Sprintf("%s_%05d.glb", base, f)
	}
	if err := gltfexport.WriteFile(out, sk, f, gltfexport.Options{TRS: *trs}); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	log.Info().Str("path", out).Int("frame", f).Int("nodes", sk.Len()).Msg("exported")
}
