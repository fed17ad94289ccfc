/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/babybox/games/babynames"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	advanceDelay   time.Duration
	bind           string
	closeDelta     int
	closeRatio     float64
	corsOrigins    []string
	dataset        string
	maxAttempts    int
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	yearByGender   bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.advanceDelay < 0 {
		return fmt.Errorf("invalid advance delay (must not be negative): %s", c.advanceDelay)
	}
	if err := c.generator().Validate(); err != nil {
		return fmt.Errorf("invalid question settings: %w", err)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) generator() babynames.GeneratorConfig {
	return babynames.GeneratorConfig{
		MaxAttempts:  c.maxAttempts,
		CloseRatio:   c.closeRatio,
		CloseDelta:   c.closeDelta,
		YearByGender: c.yearByGender,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BABYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "babybox",
		Short:         "A trivia game about baby name popularity, served as a single webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	defaults := babynames.DefaultGeneratorConfig()

	fs.DurationVar(&cfg.advanceDelay, "advance-delay", 2500*time.Millisecond, "pause between an answer and the next question (env: BABYBOX_ADVANCE_DELAY)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BABYBOX_BIND)")
	fs.IntVar(&cfg.closeDelta, "close-delta", defaults.CloseDelta, "treat distractors within this many births of the answer as close, 0 to disable (env: BABYBOX_CLOSE_DELTA)")
	fs.Float64Var(&cfg.closeRatio, "close-ratio", defaults.CloseRatio, "treat distractors within this fraction of the answer's births as close, 0 to disable (env: BABYBOX_CLOSE_RATIO)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origin", nil, "origins allowed to fetch the dataset summary cross-origin (env: BABYBOX_CORS_ORIGIN)")
	fs.StringVarP(&cfg.dataset, "dataset", "d", "", "path to a year,gender,name,count csv file, instead of the built-in sample (env: BABYBOX_DATASET)")
	fs.IntVar(&cfg.maxAttempts, "max-attempts", defaults.MaxAttempts, "samples tried per question kind before falling back to the other (env: BABYBOX_MAX_ATTEMPTS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: BABYBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: BABYBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: BABYBOX_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: BABYBOX_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: BABYBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: BABYBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: BABYBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: BABYBOX_VERSION)")
	fs.BoolVar(&cfg.yearByGender, "year-by-gender", defaults.YearByGender, "restrict \"which year\" questions to a single gender (env: BABYBOX_YEAR_BY_GENDER)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("babybox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
