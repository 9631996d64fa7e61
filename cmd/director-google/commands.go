package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"git.sr.ht/~spc/go-ini"
	"git.sr.ht/~spc/go-log"
	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
	"golang.org/x/text/language"

	"github.com/aharelick/director-google-plugin/internal/conf"
	"github.com/aharelick/director-google-plugin/internal/l10n"
	"github.com/aharelick/director-google-plugin/internal/metadata"
	"github.com/aharelick/director-google-plugin/launcher"
)

// Commands returns the subcommands operating on l.
func Commands(l *launcher.Launcher) []*cli.Command {
	return []*cli.Command{
		metadataCommand(l),
		configCommand(l),
		imagesCommand(l),
		validateCommand(l),
	}
}

func metadataCommand(l *launcher.Launcher) *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: l10n.T("print the registered cloud providers and their properties"),
		Action: func(c *cli.Context) error {
			all, err := l.CloudProviderMetadata()
			if err != nil {
				return err
			}
			localizer := l10n.For(language.Und)
			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			for _, md := range all {
				fmt.Fprintf(w, "%s\t%s\n", md.ID, localizer.T(md.Name))
				printProperties(w, localizer, "provider", md.ProviderProperties)
				printProperties(w, localizer, "credentials", md.Credentials.Properties)
			}
			return w.Flush()
		},
	}
}

func printProperties(w *tabwriter.Writer, localizer *l10n.Localizer, kind string, props []metadata.ConfigurationProperty) {
	for _, p := range props {
		required := "optional"
		if p.Required {
			required = "required"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", kind, p.ConfigKey, required, p.LocalizedLabel(localizer))
	}
}

func configCommand(l *launcher.Launcher) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: l10n.T("inspect the merged configuration"),
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     l10n.T("print the value at a configuration path"),
				ArgsUsage: "PATH",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit(l10n.T("expected exactly one configuration path"), 1)
					}
					config, err := l.Config()
					if err != nil {
						return err
					}
					value, err := config.GetString(c.Args().First())
					if err != nil {
						return cli.Exit(err, 1)
					}
					fmt.Fprintln(c.App.Writer, value)
					return nil
				},
			},
			{
				Name:  "keys",
				Usage: l10n.T("print every configuration path and its value"),
				Action: func(c *cli.Context) error {
					config, err := l.Config()
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					for _, key := range config.Keys() {
						value, err := config.GetString(key)
						if err != nil {
							value = "<" + err.Error() + ">"
						}
						fmt.Fprintf(w, "%s\t%s\n", key, value)
					}
					return w.Flush()
				},
			},
		},
	}
}

func imagesCommand(l *launcher.Launcher) *cli.Command {
	return &cli.Command{
		Name:  "images",
		Usage: l10n.T("print the configured image aliases"),
		Action: func(c *cli.Context) error {
			config, err := l.Config()
			if err != nil {
				return err
			}
			aliases, err := config.GetStringMap(conf.ImageAliasesSection)
			if err != nil {
				return cli.Exit(err, 1)
			}
			names := make([]string, 0, len(aliases))
			for name := range aliases {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%s\n", name, aliases[name])
			}
			return w.Flush()
		},
	}
}

// credentialsFile is the INI file accepted by --credentials-file.
type credentialsFile struct {
	ProjectID string `ini:"projectId"`
	JSONKey   string `ini:"jsonKey"`
}

func readCredentialsFile(path string) (map[string]string, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read credentials file: %w", err)
	}
	var f credentialsFile
	if err := ini.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cannot parse credentials file %s: %w", path, err)
	}
	return map[string]string{
		metadata.ProjectIDProperty.ConfigKey: f.ProjectID,
		metadata.JSONKeyProperty.ConfigKey:   f.JSONKey,
	}, nil
}

func validateCommand(l *launcher.Launcher) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: l10n.T("validate credentials by creating a provider"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project-id",
				Usage:   l10n.T("Google Cloud project `ID`"),
				EnvVars: []string{"GCP_PROJECT_ID"},
			},
			&cli.StringFlag{
				Name:    "json-key",
				Usage:   l10n.T("service account JSON key `FILE` (empty for Application Default Credentials)"),
				EnvVars: []string{"JSON_KEY_PATH"},
			},
			&cli.StringFlag{
				Name:  "credentials-file",
				Usage: l10n.T("read projectId and jsonKey from an INI `FILE`"),
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: l10n.T("BCP 47 `LOCALE` of the provider messages"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: l10n.T("give up validation after `DURATION`"),
				Value: time.Minute,
			},
		},
		Action: func(c *cli.Context) error {
			config := map[string]string{
				metadata.ProjectIDProperty.ConfigKey: c.String("project-id"),
				metadata.JSONKeyProperty.ConfigKey:   c.String("json-key"),
			}
			if path := c.String("credentials-file"); path != "" {
				var err error
				config, err = readCredentialsFile(path)
				if err != nil {
					return cli.Exit(err, 1)
				}
			}

			locale := language.Und
			if s := c.String("locale"); s != "" {
				var err error
				locale, err = language.Parse(s)
				if err != nil {
					return cli.Exit(fmt.Errorf(l10n.T("invalid locale: %w"), err), 1)
				}
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			stop := func() {}
			if term.IsTerminal(int(os.Stdout.Fd())) {
				s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
				s.Suffix = l10n.T(" Validating credentials...")
				s.Start()
				stop = s.Stop
			}

			p, err := l.CreateCloudProvider(ctx, launcher.GoogleProviderID, config, locale)
			stop()
			if err != nil {
				return cli.Exit(err, 1)
			}
			log.Infof("validated credentials for project %v", p.ProjectID())
			fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", p.ID(), p.ProjectID(), p.InstanceID())
			return nil
		},
	}
}
