package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/logging"
)

func main() {
	frame := flag.Int("frame", -1, "Dump the pose of this frame as YAML")
	joint := flag.String("joint", "", "Spew-dump this joint")
	logLevel := flag.String("log-level", "", "Log level")
	flag.Parse()

	if _, err := logging.InitLogger("bvh-inspect", *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-frame N] [-joint NAME] file.bvh")
		os.Exit(2)
	}

	sk, err := bvh.ParseFile(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load BVH")
	}

	fmt.Printf("Joints: %d, Channels: %d, Frames: %d, Frame time: %gs, Duration: %.2fs\n",
		sk.Len(), sk.NumChannels(), sk.NumFrames(), sk.FrameTime(), sk.Duration())
	if err := writeTree(os.Stdout, sk); err != nil {
		log.Fatal().Err(err).Msg("hierarchy walk failed")
	}

	if *joint != "" {
		j, err := sk.GetJoint(*joint)
		if err != nil {
			log.Fatal().Err(err).Str("joint", *joint).Msg("lookup failed")
		}
		writeSpew(os.Stdout, j)
	}

	if *frame >= 0 {
		rep, err := buildPose(sk, *frame)
		if err != nil {
			log.Fatal().Err(err).Int("frame", *frame).Msg("recalculation failed")
		}
		if err := writeYAML(os.Stdout, rep); err != nil {
			log.Fatal().Err(err).Msg("yaml encode failed")
		}
	}
}
