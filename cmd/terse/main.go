// The terse command compresses greyscale TIFF files to .trpx, replacing
// each input file on success.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/senikm/trpx"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:      "terse",
		Usage:     "Compress greyscale TIFF images to .trpx",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print a summary line per file",
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "keep the input files instead of deleting them",
			},
			&cli.IntFlag{
				Name:  "block",
				Usage: "codec block size in values",
			},
			&cli.StringFlag{
				Name:  "stats",
				Usage: "write per-file statistics to a CSV `FILE`",
			},
		},
		Action: compressAll,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func compressAll(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.ShowAppHelp(ctx)
	}
	opts := trpx.Options{
		Block: ctx.Int("block"),
		Keep:  ctx.Bool("keep"),
	}
	verbose := ctx.Bool("verbose")

	var collected []trpx.FileStats
	err := trpx.ProcessBatch(ctx.Args().Slice(), func(path string) error {
		stats, err := trpx.CompressFile(path, opts)
		if err != nil {
			return err
		}
		collected = append(collected, stats)
		if verbose {
			fmt.Printf("%s -> %s: %d frame(s), %d -> %d bytes (%.1f%%)\n",
				stats.Input, stats.Output, stats.Frames,
				stats.RawBytes, stats.TerseBytes, 100*stats.Ratio)
		}
		return nil
	})
	if err != nil {
		// Per-file failures are reported but do not fail the batch.
		log.Printf("%s", err.Error())
	}

	if statsPath := ctx.String("stats"); statsPath != "" && len(collected) > 0 {
		f, err := os.Create(statsPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := trpx.WriteStatsCSV(f, collected); err != nil {
			return err
		}
	}
	return nil
}
