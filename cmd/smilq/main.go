package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/dgallion1/smilq/internal/config"
	"github.com/dgallion1/smilq/internal/content"
	"github.com/dgallion1/smilq/internal/epub"
	"github.com/dgallion1/smilq/internal/overlay"
	"github.com/dgallion1/smilq/internal/pipeline"
	"github.com/dgallion1/smilq/internal/report"
	"github.com/dgallion1/smilq/internal/timeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func usagef(format string, args ...any) error {
	return usageError(fmt.Sprintf(format, args...))
}

// options holds the flags shared by every subcommand.
type options struct {
	configPath     string
	debug          bool
	forceSynthetic bool
	logFormat      string

	json     bool
	html     bool
	withText bool
	audible  bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return usagef("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "import", "at", "nth", "offset", "report":
	default:
		printUsage(stderr)
		return usagef("unknown command %q", cmd)
	}

	var opts options
	flagSet := pflag.NewFlagSet("smilq "+cmd, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flagSet.BoolVar(&opts.debug, "debug", false, "emit verbose import diagnostics")
	flagSet.BoolVar(&opts.forceSynthetic, "force-synthetic", false, "replace every audio clip with synthetic speech")
	flagSet.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	switch cmd {
	case "import":
		flagSet.BoolVar(&opts.json, "json", false, "print job snapshots as JSON")
	case "report":
		flagSet.BoolVar(&opts.html, "html", false, "render the report as HTML")
		flagSet.BoolVar(&opts.withText, "text", false, "include fragment text from the content documents")
		flagSet.BoolVar(&opts.audible, "audible", false, "list only pars that advance the clock")
	}

	if err := flagSet.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError(err.Error())
	}

	cfg, err := loadConfig(opts, flagSet)
	if err != nil {
		return err
	}
	log := newLogger(cfg, stderr)

	pos := flagSet.Args()
	if len(pos) == 0 {
		return usagef("%s: missing publication path", cmd)
	}
	pub, err := epub.Open(pos[0])
	if err != nil {
		return err
	}
	defer pub.Close()

	if cmd == "import" {
		if len(pos) != 1 {
			return usagef("import: expected <publication>")
		}
		return runImport(ctx, cfg, pub, log, opts, stdout)
	}

	want := 3
	if cmd == "report" {
		want = 2
	}
	if len(pos) != want {
		return usagef("%s: expected %d arguments, got %d", cmd, want, len(pos))
	}

	job, err := pipeline.Import(ctx, cfg, pub, pos[1], log)
	if err != nil {
		return err
	}
	m := job.Model()

	switch cmd {
	case "at":
		return runAt(m, pos[2], stdout)
	case "nth":
		return runNth(m, pos[2], stdout)
	case "offset":
		return runOffset(m, pos[2], stdout)
	default:
		return runReport(m, pub, opts, stdout)
	}
}

func loadConfig(opts options, flagSet *pflag.FlagSet) (config.Config, error) {
	cfg := config.Load()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if flagSet.Changed("debug") {
		cfg.Debug = opts.debug
	}
	if flagSet.Changed("force-synthetic") {
		cfg.ForceSynthetic = opts.forceSynthetic
	}
	if flagSet.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func runImport(ctx context.Context, cfg config.Config, pub *epub.Container, log *slog.Logger, opts options, stdout io.Writer) error {
	jobs, stats, err := pipeline.ImportAll(ctx, cfg, pub, log)
	if err != nil {
		return err
	}

	snaps := make([]pipeline.JobSnapshot, len(jobs))
	failed := 0
	for i, job := range jobs {
		snaps[i] = job.Snapshot()
		if snaps[i].Status == pipeline.StatusFailed {
			failed++
		}
	}

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Jobs  []pipeline.JobSnapshot `json:"jobs"`
			Stats pipeline.StatsSnapshot `json:"stats"`
		}{snaps, stats.Snapshot()}); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SPINE ITEM\tSMIL\tSTATUS\tPARS\tDURATION\tDIAGNOSTICS")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n",
				s.SpineItemID, s.Href, s.Status, s.Progress.Pars,
				report.FormatClock(s.Progress.DurationMs), s.Progress.Diagnostics)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d overlays failed to import", failed, len(jobs))
	}
	return nil
}

func runAt(m *overlay.Model, arg string, stdout io.Writer) error {
	ms, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return usagef("at: invalid time %q", arg)
	}
	par, ok := m.ParallelAt(ms)
	if !ok {
		return fmt.Errorf("no par plays at %vms (document lasts %vms)", ms, m.DurationMillisecondsCalculated())
	}
	return printPar(m, par, stdout)
}

func runNth(m *overlay.Model, arg string, stdout io.Writer) error {
	k, err := strconv.Atoi(arg)
	if err != nil {
		return usagef("nth: invalid index %q", arg)
	}
	par, ok := m.NthParallel(k)
	if !ok {
		return fmt.Errorf("no par with index %d", k)
	}
	return printPar(m, par, stdout)
}

func runOffset(m *overlay.Model, xmlID string, stdout io.Writer) error {
	id, ok := m.FindByXMLID(xmlID)
	if !ok || m.Node(id).Kind != overlay.KindPar {
		return fmt.Errorf("no par with id %q", xmlID)
	}
	offset, ok := m.ClipOffset(id)
	if !ok {
		return fmt.Errorf("par %q is not part of the document body", xmlID)
	}
	_, err := fmt.Fprintf(stdout, "%g\n", offset)
	return err
}

func printPar(m *overlay.Model, par overlay.NodeID, stdout io.Writer) error {
	tl := timeline.Build(m, timeline.Options{})
	for _, e := range tl.Entries {
		if e.Par != par {
			continue
		}
		ref := e.TextSrc
		if e.Fragment != "" {
			ref += "#" + e.Fragment
		}
		_, err := fmt.Fprintf(stdout, "%s\t%d\t%g\t%g\t%s\n", e.XMLID, e.Ordinal, e.BeginMs, e.EndMs, ref)
		return err
	}
	return fmt.Errorf("par %d not in timeline", par)
}

func runReport(m *overlay.Model, pub *epub.Container, opts options, stdout io.Writer) error {
	tlOpts := timeline.Options{AudibleOnly: opts.audible}
	if opts.withText {
		lib := content.NewLibrary(func(name string) ([]byte, error) {
			return pub.ReadFile(pub.Package.ResolveItemHref(name))
		})
		tlOpts.TextSource = lib.Fragment
	}
	tl := timeline.Build(m, tlOpts)

	reportOpts := report.Options{IncludeText: opts.withText}
	if opts.html {
		return report.HTML(stdout, tl, reportOpts)
	}
	return report.Markdown(stdout, tl, reportOpts)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `smilq inspects EPUB 3 media overlays.

Usage:
  smilq import <publication> [--json]
  smilq at <publication> <spine-item> <ms>
  smilq nth <publication> <spine-item> <index>
  smilq offset <publication> <spine-item> <par-id>
  smilq report <publication> <spine-item> [--html] [--text] [--audible]

A publication is an unpacked EPUB directory, a .epub archive, or a package
document inside an unpacked directory.

Common flags:
  -c, --config string     YAML configuration file
      --debug             emit verbose import diagnostics
      --force-synthetic   replace every audio clip with synthetic speech
      --log-format string text or json

Environment: SMILQ_DEBUG, SMILQ_FORCE_SYNTHETIC, SMILQ_WORKERS,
SMILQ_MAX_DEPTH, SMILQ_LOG_FORMAT, SMILQ_ESCAPABLES, SMILQ_SKIPPABLES.
`)
}
