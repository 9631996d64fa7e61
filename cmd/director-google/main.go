package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"git.sr.ht/~spc/go-log"
	"github.com/urfave/cli/v2"

	"github.com/aharelick/director-google-plugin/internal/l10n"
	"github.com/aharelick/director-google-plugin/launcher"
)

const appName = "director-google"

var slogLevels = map[string]slog.Level{
	"error": slog.LevelError,
	"warn":  slog.LevelWarn,
	"info":  slog.LevelInfo,
	"debug": slog.LevelDebug,
}

func main() {
	l := launcher.New()

	app := &cli.App{
		Name:    appName,
		Usage:   l10n.T("inspect and validate the Google Cloud Platform plugin"),
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   l10n.T("read google.conf, google.toml and google.toml.d/ from `DIR`"),
				EnvVars: []string{"DIRECTOR_GOOGLE_CONFIG_DIR"},
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   l10n.T("set the logging `LEVEL` (error, warn, info, debug)"),
				EnvVars: []string{"DIRECTOR_GOOGLE_LOG_LEVEL"},
				Value:   "error",
			},
		},
		Before: func(c *cli.Context) error {
			name := strings.ToLower(c.String("log-level"))
			slogLevel, ok := slogLevels[name]
			if !ok {
				return cli.Exit(fmt.Errorf(l10n.T("unknown log level: %v"), name), 1)
			}
			level, err := log.ParseLevel(name)
			if err != nil {
				return cli.Exit(err, 1)
			}
			log.SetLevel(level)
			slog.SetLogLoggerLevel(slogLevel)

			if err := l.Initialize(c.String("config-dir"), nil); err != nil {
				return cli.Exit(fmt.Errorf(l10n.T("cannot load configuration: %w"), err), 1)
			}
			log.Debugf("loaded configuration from %v", c.String("config-dir"))
			return nil
		},
		Commands: Commands(l),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
