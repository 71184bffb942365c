package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/dusk-indust/illumprofile/internal/config"
	"github.com/dusk-indust/illumprofile/internal/mcptools"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir    string
	IllDir       string
	PointFiles   string
	Point        string
	PointsFile   string
	Profiles     string
	Format       string
	Out          string
	Tolerance    float64
	Hours        int
	Workers      int
	Threshold    float64
	StrictStates bool
	Verbose      bool
	ServeMCP     bool
	Version      bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("illumprofile", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory holding illumprofile.yml")
	fs.StringVar(&flags.IllDir, "ill-dir", "", "directory holding the .ill result chunks")
	fs.StringVar(&flags.PointFiles, "pts", "", "comma-separated .pts point files, one per space")
	fs.StringVar(&flags.Point, "point", "", "query point as x,y,z")
	fs.StringVar(&flags.PointsFile, "points-file", "", "file with one query point per line (batch mode)")
	fs.StringVar(&flags.Profiles, "profiles", "", "comma-separated occupant behavior profiles, one per space")
	fs.StringVar(&flags.Format, "format", "", "output format: json or csv")
	fs.StringVar(&flags.Out, "out", "", "output file (default: stdout)")
	fs.Float64Var(&flags.Tolerance, "tolerance", 0, "point match distance")
	fs.IntVar(&flags.Hours, "hours", 0, "expected hours per series")
	fs.IntVar(&flags.Workers, "workers", 0, "shading states read at once")
	fs.Float64Var(&flags.Threshold, "threshold", 0, "lux threshold for the hours-above summary")
	fs.BoolVar(&flags.StrictStates, "strict-states", false, "fail when two result branches claim the same shading state")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print read progress to stderr")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return err
	}
	applyOverrides(fs, &flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flags.ServeMCP {
		server := mcptools.NewResultMCPServer(mcptools.NewResultService(*cfg))
		return mcptools.RunStdio(ctx, server)
	}

	if flags.IllDir == "" {
		return fmt.Errorf("-ill-dir is required")
	}
	if flags.PointFiles == "" {
		return fmt.Errorf("-pts is required")
	}
	if flags.Point == "" && flags.PointsFile == "" {
		return fmt.Errorf("one of -point or -points-file is required")
	}

	w := io.Writer(os.Stdout)
	if flags.Out != "" {
		f, err := os.Create(flags.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	job := queryJob{
		cfg:      *cfg,
		illDir:   flags.IllDir,
		points:   splitList(flags.PointFiles),
		profiles: splitList(flags.Profiles),
	}

	if flags.PointsFile != "" {
		return runBatch(ctx, job, flags.PointsFile, w)
	}
	return runQuery(ctx, job, flags.Point, w)
}

// applyOverrides copies every flag set on the command line over the file
// config.
func applyOverrides(fs *flag.FlagSet, flags *cliFlags, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = flags.Format
		case "tolerance":
			cfg.Tolerance = flags.Tolerance
		case "hours":
			cfg.Hours = flags.Hours
		case "workers":
			cfg.Workers = flags.Workers
		case "threshold":
			cfg.ThresholdLux = flags.Threshold
		case "strict-states":
			cfg.StrictStates = flags.StrictStates
		case "verbose":
			cfg.Verbose = flags.Verbose
		}
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
