package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/RaidenIV/dj-database/internal/service/record"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

type options struct {
	count  int
	seed   int64
	format string
	out    string
	messy  bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate fake DJ profiles for the import endpoint",
		Long: "Generate fake DJ profiles in the export layout, which the import endpoint accepts.\n" +
			"The same --seed always produces the same file.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.count < 1 {
				return fmt.Errorf("--count must be positive, got %d", opts.count)
			}
			write, err := writerFor(opts.format)
			if err != nil {
				return err
			}

			records := generate(gofakeit.New(opts.seed), opts.count, opts.messy)

			var w io.Writer = cmd.OutOrStdout()
			if opts.out != "" && opts.out != "-" {
				f, err := os.Create(opts.out)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.out, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := write(w, records); err != nil {
				return err
			}
			if opts.out != "" && opts.out != "-" {
				cmd.PrintErrf("wrote %d profiles to %s\n", len(records), opts.out)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 100, "Number of profiles")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (0 picks one at random)")
	cmd.Flags().StringVar(&opts.format, "format", formatCSV, "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "-", "Output file, - for stdout")
	cmd.Flags().BoolVar(&opts.messy, "messy", false, "Write raw form-style values (state codes, formatted phones, some rows missing age)")
	return cmd
}

func writerFor(format string) (func(io.Writer, []*record.Record) error, error) {
	switch strings.ToLower(format) {
	case formatCSV:
		return record.WriteCSV, nil
	case formatXLSX:
		return record.WriteXLSX, nil
	default:
		return nil, fmt.Errorf("unknown --format %q (want csv or xlsx)", format)
	}
}
