// The prolix command decompresses .trpx files back to greyscale TIFF,
// replacing each input file on success.
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
		Name:      "prolix",
		Usage:     "Decompress .trpx files to greyscale TIFF images",
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
			&cli.StringFlag{
				Name:  "stats",
				Usage: "write per-file statistics to a CSV `FILE`",
			},
		},
		Action: decompressAll,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func decompressAll(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.ShowAppHelp(ctx)
	}
	opts := trpx.Options{
		Keep: ctx.Bool("keep"),
	}
	verbose := ctx.Bool("verbose")

	var collected []trpx.FileStats
	err := trpx.ProcessBatch(ctx.Args().Slice(), func(path string) error {
		stats, err := trpx.DecompressFile(path, opts)
		if err != nil {
			return err
		}
		collected = append(collected, stats)
		if verbose {
			fmt.Printf("%s -> %s: %d frame(s), %d -> %d bytes\n",
				stats.Input, stats.Output, stats.Frames,
				stats.TerseBytes, stats.RawBytes)
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
