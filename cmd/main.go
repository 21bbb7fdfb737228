package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedragon/go-vscrub/internal"
	"github.com/fedragon/go-vscrub/internal/core"
	"github.com/fedragon/go-vscrub/internal/fs"
	"github.com/fedragon/go-vscrub/internal/logging"
	"github.com/fedragon/go-vscrub/internal/report"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var defaultJournal = filepath.Join("~", ".vscrub", "journal.db")

func main() {
	if err := newApp(fs.PlatformFromEnv).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commonFlags returns new instances on every call: urfave/cli keeps parsed
// state in the flag itself, so the app and each command need their own.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "app",
			Usage:   "only process the given editor (repeatable)",
			EnvVars: []string{"VSCRUB_APPS"},
		},
		&cli.StringFlag{
			Name:    "journal",
			Value:   defaultJournal,
			Usage:   "path of the journal recording every outcome",
			EnvVars: []string{"VSCRUB_JOURNAL"},
		},
		&cli.BoolFlag{
			Name:  "no-journal",
			Usage: "do not record outcomes",
		},
		&cli.DurationFlag{
			Name:    "lock-timeout",
			Value:   core.DefaultLockTimeout,
			Usage:   "how long to wait for a store locked by a running editor",
			EnvVars: []string{"VSCRUB_LOCK_TIMEOUT"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log every step in a human readable format",
			EnvVars: []string{"VSCRUB_VERBOSE"},
		},
	}
}

func cleanFlags() []cli.Flag {
	return append(commonFlags(), &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "only report how many rows would be deleted",
	})
}

func newApp(platform func() (fs.Platform, error)) *cli.App {
	cmd := &command{platform: platform}

	return &cli.App{
		Name:   "vscrub",
		Usage:  fmt.Sprintf("Remove %q entries from the global settings store of %s", core.KeyPattern, strings.Join(fs.KnownApps(), ", ")),
		Flags:  cleanFlags(),
		Action: cmd.clean,
		Commands: []*cli.Command{
			{
				Name:   "clean",
				Usage:  "back up each store, then delete the matching rows",
				Flags:  cleanFlags(),
				Action: cmd.clean,
			},
			{
				Name:   "list",
				Usage:  "show the stores found and how many rows match",
				Flags:  commonFlags(),
				Action: cmd.list,
			},
			{
				Name:   "restore",
				Usage:  "put each store's latest backup back in place",
				Flags:  commonFlags(),
				Action: cmd.restore,
			},
			{
				Name:   "history",
				Usage:  "show the journal, newest first",
				Action: cmd.history,
				Flags: append(commonFlags(), &cli.IntFlag{
					Name:  "limit",
					Value: 20,
					Usage: "maximum number of entries to show, 0 for all",
				}),
			},
		},
	}
}

// given returns the closest context on which name was given, so that a flag
// placed before the command name is not shadowed by the command's default.
func given(c *cli.Context, name string) *cli.Context {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx
		}
	}
	return c
}

type command struct {
	platform func() (fs.Platform, error)
}

func (cmd *command) setup(c *cli.Context) (*internal.Runner, *zap.Logger, error) {
	logger := logging.New(c.App.ErrWriter, given(c, "verbose").Bool("verbose"))

	platform, err := cmd.platform()
	if err != nil {
		return nil, nil, err
	}

	journal := ""
	if !given(c, "no-journal").Bool("no-journal") {
		journal, err = homedir.Expand(given(c, "journal").String("journal"))
		if err != nil {
			return nil, nil, err
		}
	}

	runner := internal.NewRunner(logger, platform, internal.Options{
		Apps:        given(c, "app").StringSlice("app"),
		JournalPath: journal,
		DryRun:      given(c, "dry-run").Bool("dry-run"),
		LockTimeout: given(c, "lock-timeout").Duration("lock-timeout"),
	})

	return runner, logger, nil
}

func (cmd *command) clean(c *cli.Context) error {
	runner, logger, err := cmd.setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	results, err := runner.Clean(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	report.Results(c.App.Writer, results)
	if report.Failed(results) {
		return cli.Exit("some stores could not be sanitized, see above", 1)
	}

	return nil
}

func (cmd *command) list(c *cli.Context) error {
	runner, logger, err := cmd.setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stats, err := runner.List(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	report.Stats(c.App.Writer, stats)
	return nil
}

func (cmd *command) restore(c *cli.Context) error {
	runner, logger, err := cmd.setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	results, err := runner.Restore(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	report.Results(c.App.Writer, results)
	if report.Failed(results) {
		return cli.Exit("some stores could not be restored, see above", 1)
	}

	return nil
}

func (cmd *command) history(c *cli.Context) error {
	runner, logger, err := cmd.setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	entries, err := runner.History(c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	report.History(c.App.Writer, entries)
	return nil
}
