package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/dev-tams/trashkit/internal/app"
	"github.com/dev-tams/trashkit/internal/config"
	"github.com/dev-tams/trashkit/internal/logging"
	"github.com/dev-tams/trashkit/internal/scan"
	"github.com/dev-tams/trashkit/internal/store"
	"github.com/dev-tams/trashkit/internal/store/drive"
	"github.com/dev-tams/trashkit/internal/sweep"
)

func main() {
	cliApp := &cli.App{
		Name:  "trashkit",
		Usage: "incremental cleanup of old Google Drive trash",
		Commands: []*cli.Command{
			{
				Name:  "sweep",
				Usage: "delete trashed files older than a threshold",
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Value:   30,
						Usage:   "minimum age in days for a trashed file to be deleted",
					},
					&cli.BoolFlag{
						Name:  "view",
						Usage: "list candidates without deleting anything",
					},
					&cli.BoolFlag{
						Name:  "auto",
						Usage: "delete without asking for confirmation",
					},
					&cli.BoolFlag{
						Name:  "my-drive-only",
						Usage: "restrict the change feed to My Drive",
					},
					&cli.BoolFlag{
						Name:  "full-path",
						Usage: "resolve and display full folder paths for candidates",
					},
					&cli.StringFlag{
						Name:  "cursor-file",
						Value: ".trashkit-cursor",
						Usage: "file holding the change-feed position between runs",
					},
				),
				Action: runSweepCmd,
			},
			{
				Name:  "glob",
				Usage: "delete trashed files matching configured glob patterns",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "path to glob config json",
					},
					&cli.BoolFlag{
						Name:  "view",
						Usage: "list matches without deleting anything",
					},
					&cli.BoolFlag{
						Name:  "auto",
						Usage: "delete without asking for confirmation",
					},
				),
				Action: runGlobCmd,
			},
			{
				Name:  "daemon",
				Usage: "run sweeps unattended on a cron schedule",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "schedule",
						Required: true,
						Usage:    "5-field cron expression, evaluated in UTC",
					},
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Value:   30,
						Usage:   "minimum age in days for a trashed file to be deleted",
					},
					&cli.BoolFlag{
						Name:  "my-drive-only",
						Usage: "restrict the change feed to My Drive",
					},
					&cli.StringFlag{
						Name:  "cursor-file",
						Value: ".trashkit-cursor",
						Usage: "file holding the change-feed position between runs",
					},
				),
				Action: runDaemonCmd,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "credentials",
			Value: "credentials.json",
			Usage: "path to OAuth client credentials",
		},
		&cli.StringFlag{
			Name:  "token",
			Value: "token.json",
			Usage: "path to stored OAuth token",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "total budget for remote calls in one run (0 = unlimited)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable debug logging",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "suppress per-file progress output",
		},
	}
}

func runSweepCmd(c *cli.Context) error {
	log := newLogger(c.Bool("verbose"))
	mode, err := pickMode(c)
	if err != nil {
		return err
	}

	st, err := newDriveStore(c)
	if err != nil {
		return err
	}

	opts := app.SweepOptions{
		MaxAgeDays:  c.Int("days"),
		Timeout:     c.Duration("timeout"),
		Mode:        mode,
		MyDriveOnly: c.Bool("my-drive-only"),
		FullPath:    c.Bool("full-path"),
		CursorPath:  c.String("cursor-file"),
	}

	res, err := app.RunSweep(c.Context, st, opts, stdinConfirm, newReporter(c.Bool("quiet")), nil, log)
	if err != nil {
		return err
	}
	printSweepSummary(res, mode)
	return nil
}

func runGlobCmd(c *cli.Context) error {
	log := newLogger(c.Bool("verbose"))
	mode, err := pickMode(c)
	if err != nil {
		return err
	}

	cfg, err := config.LoadGlobConfig(c.String("config"))
	if err != nil {
		return err
	}

	st, err := newDriveStore(c)
	if err != nil {
		return err
	}

	opts := app.GlobOptions{
		Timeout: c.Duration("timeout"),
		Mode:    mode,
	}

	res, err := app.RunGlobSweep(c.Context, st, cfg, opts, stdinConfirm, log)
	if err != nil {
		return err
	}

	for _, p := range res.Patterns {
		fmt.Printf("%s: matched %d, deleted %d, failed %d\n", p.Pattern, p.Matched, p.Deleted, len(p.Failures))
	}
	fmt.Printf("total: deleted %d of %d matched\n", res.Deleted(), res.Matched())
	return nil
}

func runDaemonCmd(c *cli.Context) error {
	log := newLogger(c.Bool("verbose"))

	st, err := newDriveStore(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := app.DaemonOptions{
		Schedule: c.String("schedule"),
		Sweep: app.SweepOptions{
			MaxAgeDays:  c.Int("days"),
			Timeout:     c.Duration("timeout"),
			MyDriveOnly: c.Bool("my-drive-only"),
			CursorPath:  c.String("cursor-file"),
		},
	}
	return app.RunDaemon(ctx, st, opts, nil, log)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(logging.NewConsoleHandler(os.Stderr, level, true))
}

func pickMode(c *cli.Context) (sweep.Mode, error) {
	view, auto := c.Bool("view"), c.Bool("auto")
	switch {
	case view && auto:
		return 0, fmt.Errorf("--view and --auto are mutually exclusive")
	case view:
		return sweep.ViewOnly, nil
	case auto:
		return sweep.AutoConfirm, nil
	default:
		return sweep.PromptConfirm, nil
	}
}

// newDriveStore builds the Drive client from stored OAuth credentials. There
// is no interactive consent flow; a missing or expired token is reported with
// instructions rather than opening a browser.
func newDriveStore(c *cli.Context) (store.Store, error) {
	raw, err := os.ReadFile(c.String("credentials"))
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(raw, driveapi.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := loadToken(c.String("token"))
	if err != nil {
		return nil, fmt.Errorf("load token (run an OAuth consent flow first and save the token): %w", err)
	}

	ctx := c.Context
	client := conf.Client(ctx, tok)
	return drive.New(ctx, option.WithHTTPClient(client))
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func stdinConfirm(n int) (bool, error) {
	fmt.Printf("Delete %d file(s)? [y/N]: ", n)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func printSweepSummary(res *app.SweepResult, mode sweep.Mode) {
	verb := "deleted"
	if mode == sweep.ViewOnly {
		verb = "would delete"
	}
	fmt.Printf("%s %d of %d candidate(s), %d failure(s), cursor at %s (%s)\n",
		verb, res.Outcome.Deleted, res.Outcome.Candidates, len(res.Outcome.Failures),
		res.Committed, res.Duration.Round(time.Millisecond))
}

// consoleReporter prints scan progress the way a person watches it: one line
// per calendar day entered, one per candidate found.
type consoleReporter struct{}

func (consoleReporter) ScanningDay(day string) { fmt.Printf("scanning %s\n", day) }

func (consoleReporter) Found(cand sweep.Candidate) {
	fmt.Printf("  %s\n", cand.Display)
}

func newReporter(quiet bool) scan.Reporter {
	if quiet {
		return scan.NopReporter
	}
	return consoleReporter{}
}
