// Command compress runs a single compression job from the command line
// and prints the result, sharing the daemon's orchestrator end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	compressorUsecase "github.com/panuavakul/v-video-compressor-sub001/internal/compressor/usecase"
	"github.com/panuavakul/v-video-compressor-sub001/internal/config"
	"github.com/panuavakul/v-video-compressor-sub001/internal/exporter/ffmpeg"
	"github.com/panuavakul/v-video-compressor-sub001/internal/models"
	"github.com/panuavakul/v-video-compressor-sub001/pkg/logger"
)

func main() {
	var (
		configFile   = flag.String("config", "config.yml", "config file path")
		quality      = flag.String("quality", string(models.QualityMedium), "quality tier: high, medium, low, very_low, ultra_low")
		removeAudio  = flag.Bool("no-audio", false, "strip the audio track")
		estimateOnly = flag.Bool("estimate", false, "print the size estimate and exit")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <video file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfgFile, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()

	exporter := ffmpeg.NewExporter(cfg, appLogger)
	uc := compressorUsecase.NewCompressorUseCase(cfg, exporter, exporter, nil, appLogger)

	ctx := context.Background()
	src, err := uc.ProbeSource(ctx, path)
	if err != nil {
		appLogger.Fatalf("probe failed: %v", err)
	}

	spec := models.CompressionSpec{
		Quality:     models.Quality(*quality),
		RemoveAudio: *removeAudio,
	}

	estimate, err := uc.Estimate(ctx, *src, spec)
	if err != nil {
		appLogger.Fatalf("estimate failed: %v", err)
	}
	fmt.Printf("estimated size: %d bytes (%.2f Mbps, ratio %.2f)\n",
		estimate.EstimatedBytes, estimate.BitrateMbps, estimate.CompressionRatio)
	if *estimateOnly {
		return
	}

	result, err := uc.Compress(ctx, *src, spec)
	if err != nil {
		appLogger.Fatalf("compression failed: %v", err)
	}

	fmt.Printf("output: %s\n", result.OutputPath)
	fmt.Printf("original: %d bytes (%s), compressed: %d bytes (%s)\n",
		result.OriginalSize, result.OriginalResolution,
		result.CompressedSize, result.CompressedResolution)
	fmt.Printf("saved %d bytes in %s", result.SpaceSaved, result.Elapsed.Round(time.Millisecond))
	if result.UsedOriginal {
		fmt.Printf(" (compression not worthwhile, original kept)")
	}
	fmt.Println()
}
