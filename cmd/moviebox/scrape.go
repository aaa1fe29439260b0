package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pevans/moviescraper/access"
	"github.com/pevans/moviescraper/config"
	"github.com/pevans/moviescraper/logging"
	"github.com/pevans/moviescraper/quota"
	"github.com/pevans/moviescraper/session"
)

var (
	scrapePages  int
	scrapeOutput string

	adminPages  int
	adminOutput string
	adminKey    string

	userPages   int
	userOutput  string
	userQuotaDB string
)

func init() {
	scrapeCmd.Flags().IntVar(&scrapePages, "pages", session.PublicMaxPages, "Number of listing pages to scrape (at most 3).")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "Output file (defaults to movies.json).")

	adminCmd.Flags().IntVar(&adminPages, "pages", 3, "Number of listing pages to scrape.")
	adminCmd.Flags().StringVarP(&adminOutput, "output", "o", "", "Output file (defaults to admin_movies.json).")
	adminCmd.Flags().StringVar(&adminKey, "key", "", "Admin key. Prompted for when not given.")

	userCmd.Flags().IntVar(&userPages, "pages", 1, "Number of listing pages to scrape.")
	userCmd.Flags().StringVarP(&userOutput, "output", "o", "", "Output file (defaults to user_movies.json).")
	userCmd.Flags().StringVar(&userQuotaDB, "quota-db", "", "SQLite file that keeps the page quota across runs.")

	rootCmd.AddCommand(scrapeCmd, adminCmd, userCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--pages N] [--output <file>]",
	Short: "Scrapes the public movie listing.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		return runSession(cmd.Context(), cmd.OutOrStdout(), env, session.PublicPolicy(), session.Request{
			Pages: scrapePages,
		}, pick(scrapeOutput, env.cfg.Output.Public))
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin [--key <key>] [--pages N] [--output <file>]",
	Short: "Scrapes with extended details. Requires the admin key.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}

		key := adminKey
		if key == "" {
			key, err = promptKey(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		verifier, err := access.FromEnv(env.cfg.Access.SecretEnv)
		if err != nil {
			return err
		}

		return runSession(cmd.Context(), cmd.OutOrStdout(), env, session.AdminPolicy(verifier), session.Request{
			Pages: adminPages,
			Key:   key,
		}, pick(adminOutput, env.cfg.Output.Admin))
	},
}

var userCmd = &cobra.Command{
	Use:   "user [--pages N] [--quota-db <file>] [--output <file>]",
	Short: "Scrapes under the daily page quota.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}

		opts := quota.Options{}
		if dbPath := pick(userQuotaDB, env.cfg.Quota.DB); dbPath != "" {
			store, err := quota.NewSQLiteStore(dbPath, env.cfg.Quota.Name)
			if err != nil {
				return err
			}
			defer store.Close()
			opts.Store = store
		}

		q, err := quota.New(opts)
		if err != nil {
			return err
		}
		env.logger.Debug().
			Int("used", q.Used()).
			Int("budget", q.Budget()).
			Time("last_reset", q.LastReset()).
			Msg("loaded quota")

		return runSession(cmd.Context(), cmd.OutOrStdout(), env, session.UserPolicy(q), session.Request{
			Pages: userPages,
		}, pick(userOutput, env.cfg.Output.User))
	},
}

// cliEnv is what every scrape command needs before building a session.
type cliEnv struct {
	cfg    config.Config
	logger zerolog.Logger
}

func loadEnv() (cliEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cliEnv{}, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if prettyLogs {
		cfg.Log.Pretty = true
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})
	return cliEnv{cfg: cfg, logger: logger}, nil
}

// runSession runs one session and writes its records to output. Nothing is
// written when the session fails.
func runSession(ctx context.Context, out io.Writer, env cliEnv, policy session.Policy, req session.Request, output string) error {
	controller, err := session.New(session.Options{
		Site:        env.cfg.Site,
		Policy:      policy,
		Open:        env.cfg.Opener(),
		Logger:      logging.WithComponent(env.logger, "session"),
		WaitTimeout: env.cfg.Fetch.WaitTimeout,
	})
	if err != nil {
		return err
	}

	result, err := controller.Run(ctx, req)
	if err != nil {
		return err
	}
	if err := result.Store.Flush(output); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintln(out, "Scraping completed successfully!")
	printSummary(out, result, output)
	return nil
}

// promptKey asks for the admin key on w and reads one line from r.
func promptKey(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter admin key: ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read admin key: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// pick returns value unless it is empty.
func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
