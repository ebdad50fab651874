package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/pubship"
	"github.com/bft-labs/pubship/internal/adapters/fs"
	logAdapter "github.com/bft-labs/pubship/internal/adapters/log"
	"github.com/bft-labs/pubship/internal/cliconfig"
	"github.com/bft-labs/pubship/internal/keywatch"
)

const longHelp = `Ship newline-delimited JSON log records to a Google Cloud Pub/Sub topic.

Records are read from a file or stdin, batched by size and interval, and
published as one message per batch. Authentication uses a service-account
key (PKCS#12, PEM or JSON) exchanged for an OAuth2 access token.

Configuration is layered: defaults, then $HOME/.pubship/config.toml, then
PUBSHIP_* environment variables, then flags.`

var exampleUsage = strings.TrimSpace(`
  app | pubship --email svc@proj.iam.gserviceaccount.com --private-key-path key.p12 --project proj --topic logs
  pubship --config ./pubship.toml --input /var/log/app.ndjson
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return pubship.Version
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := logAdapter.NewConsoleLogger(os.Stderr, cfg.Level())

	root := &cobra.Command{
		Use:           "pubship",
		Short:         "Ship structured log records to Google Cloud Pub/Sub",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file but not explicit flags.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cliconfig.LoadKeyIdentity(&cfg); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log = logAdapter.NewConsoleLogger(os.Stderr, cfg.Level())
			log.Info().Interface("config", cfg.Masked()).Msg("configuration")
			logger := logAdapter.NewZerologAdapterWithLogger(log)

			source, err := fs.OpenRecordReader(cfg.Input, logger)
			if err != nil {
				return err
			}

			opts := []pubship.Option{
				pubship.WithLogger(logger),
				pubship.WithAgentConfig(cfg.AgentConfig()),
			}
			if cfg.WatchKey {
				opts = append(opts, pubship.WithKeyWatch(keywatch.DefaultDebounceDelay))
			}

			s, err := pubship.New(cfg.Settings(), source, opts...)
			if err != nil {
				_ = source.Close()
				return fmt.Errorf("create shipper: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := s.Start(ctx); err != nil {
				return fmt.Errorf("start shipper: %w", err)
			}

			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
				if err := s.Stop(); err != nil && !errors.Is(err, pubship.ErrNotRunning) {
					return fmt.Errorf("stop shipper: %w", err)
				}
			case <-s.Done():
			}

			if err := s.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pubship/config.toml)")

	flags.StringVar(&cfg.Email, "email", cfg.Email, "service account email (read from a JSON key when unset)")
	flags.StringVar(&cfg.PrivateKeyPath, "private-key-path", cfg.PrivateKeyPath, "path to the PKCS#12, PEM or JSON service account key")
	flags.StringVar(&cfg.PrivateKeyPassphrase, "private-key-passphrase", cfg.PrivateKeyPassphrase, "PKCS#12 passphrase")
	flags.StringVar(&cfg.Project, "project", cfg.Project, "Google Cloud project id")
	flags.StringVar(&cfg.Topic, "topic", cfg.Topic, "Pub/Sub topic id")
	flags.BoolVar(&cfg.AutoCreateTopic, "auto-create-topic", cfg.AutoCreateTopic, "accepted for compatibility; topics are never created")
	flags.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "timeout for each publish round trip")

	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Pub/Sub API endpoint")
	flags.StringVar(&cfg.TokenURL, "token-url", cfg.TokenURL, "OAuth2 token endpoint")
	for _, name := range []string{"endpoint", "token-url"} {
		if err := flags.MarkHidden(name); err != nil {
			log.Info().Err(err).Str("flag", name).Msg("failed to hide flag")
		}
	}

	flags.StringVarP(&cfg.Input, "input", "i", cfg.Input, "NDJSON input file, - for stdin")
	flags.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "publish pending records at least this often")
	flags.IntVar(&cfg.MaxBatchBytes, "max-batch-bytes", cfg.MaxBatchBytes, "maximum input bytes per batch")
	flags.IntVar(&cfg.MaxBatchRecords, "max-batch-records", cfg.MaxBatchRecords, "maximum records per batch (0 = unlimited)")
	flags.DurationVar(&cfg.RetryInitial, "retry-initial", cfg.RetryInitial, "initial retry backoff")
	flags.DurationVar(&cfg.RetryMax, "retry-max", cfg.RetryMax, "maximum retry backoff")
	flags.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "retries per batch before it is dropped (0 = forever)")
	flags.BoolVar(&cfg.WatchKey, "watch-key", cfg.WatchKey, "reload credentials when the key file changes")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("pubship")
		os.Exit(1)
	}
}
