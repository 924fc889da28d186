// Package main is the entry point for the alquad CLI.
// alquad resolves free-text requests such as "open my resume" or
// "launch chrome" into a path on the local partitions and opens it.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/normanking/alquad/internal/agent"
	"github.com/normanking/alquad/internal/config"
	"github.com/normanking/alquad/internal/logging"
)

var (
	version  = "0.1.0"
	cfgPath  string
	verbose  bool
	provider string

	cfg        *config.Config
	logSession *logging.Session
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptText = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).Render("alquad> ")
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "alquad",
		Short: "alquad - find and open anything on your partitions",
		Long: `alquad turns requests like "open my resume" or "launch chrome" into a
path on your partitions, walking folders with heuristics and a language model.

Start interactive mode:  alquad
One-shot:                alquad find open my cv
Configuration:           alquad config show`,
		SilenceUsage:       true,
		PersistentPreRunE:  initialize,
		PersistentPostRunE: shutdown,
		RunE:               runInteractive,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.alquad/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "oracle backend: ollama, gemini or openai")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("alquad v%s\n", version)
		},
	})
	rootCmd.AddCommand(findCmd())
	rootCmd.AddCommand(partitionsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// INITIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════

func initialize(cmd *cobra.Command, args []string) error {
	// API keys in ~/.alquad/.env must be visible before viper reads the environment
	loadEnvFile()

	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if provider != "" {
		cfg.LLM.Provider = provider
	}

	// Respect NO_COLOR for styled output and console logs alike
	if noColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	return initLogging()
}

func noColor() bool {
	return os.Getenv("NO_COLOR") != ""
}

func initLogging() error {
	logCfg := &logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		Dir:     cfg.Logging.Dir,
		Keep:    cfg.Logging.Keep,
		NoColor: noColor(),
	}
	if verbose {
		logCfg.Level = logging.VerboseConfig().Level
	}

	session, err := logging.New(logCfg)
	if err != nil {
		// File logging is optional; keep the console.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		logCfg.Dir = ""
		if session, err = logging.New(logCfg); err != nil {
			return err
		}
	}
	logSession = session
	logging.SetGlobal(session.Logger)

	log.Debug().Str("log_file", session.FilePath).Str("provider", cfg.LLM.Provider).Msg("alquad session started")
	return nil
}

func shutdown(cmd *cobra.Command, args []string) error {
	return logSession.Close()
}

// loadEnvFile loads API keys from ~/.alquad/.env into the process environment.
// Variables already set take precedence.
func loadEnvFile() {
	data, err := os.ReadFile(filepath.Join(config.GetDataDir(), ".env"))
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key != "" && value != "" && os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// INTERACTIVE LOOP (ROOT)
// ═══════════════════════════════════════════════════════════════════════════════

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println(titleStyle.Render("alquad") + dimStyle.Render(fmt.Sprintf(" v%s · %s · %d partitions · q to quit", version, a.oracle.Name(), len(a.engine.Partitions()))))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print(promptText)
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Println()
			a.printStats()
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			a.printStats()
			return nil
		}

		query := strings.TrimSpace(line)
		switch strings.ToLower(query) {
		case "":
			continue
		case "q", "quit", "exit":
			a.printStats()
			return nil
		}
		printOutcome(query, a.agent.Handle(ctx, query))
	}
}

func printOutcome(query string, out agent.Outcome) {
	msg := out.Message(query)
	switch {
	case out.Kind == agent.KindNotFound:
		fmt.Println(failStyle.Render(msg))
	case out.Opened:
		fmt.Println(okStyle.Render(msg))
	default:
		fmt.Println(msg)
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("(%s)", out.Duration.Round(time.Millisecond))))
}

// ═══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ═══════════════════════════════════════════════════════════════════════════════

func findCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "find <query...>",
		Short: "Resolve one request and open the result",
		Long: `Resolve one request and open the result.

Examples:
  alquad find open chrome
  alquad find --dry-run my cv
  alquad find search for python tutorials`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, dryRun)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			printOutcome(query, a.agent.Handle(ctx, query))
			if verbose {
				a.printStats()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the result without opening it")
	return cmd
}

func partitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "partitions",
		Short: "List the partitions that are searched, in order",
		Run: func(cmd *cobra.Command, args []string) {
			for i, p := range orderedPartitions(cfg) {
				fmt.Printf("%d. %s\n", i+1, p)
			}
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *cfg
			shown.LLM.Gemini.APIKey = redact(shown.LLM.Gemini.APIKey)
			shown.LLM.OpenAI.APIKey = redact(shown.LLM.OpenAI.APIKey)

			out, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Println(titleStyle.Render("alquad configuration"))
			fmt.Print(string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			if cfgPath != "" {
				fmt.Println(cfgPath)
				return
			}
			fmt.Println(config.GetConfigPath())
		},
	})

	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent resolutions",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := recentHistory(cmd.Context(), cfg, limit)
			if err != nil {
				fmt.Println(failStyle.Render(err.Error()))
				return
			}
			if len(entries) == 0 {
				fmt.Println(dimStyle.Render("No history yet."))
				return
			}
			for _, e := range entries {
				target := e.Target
				if target == "" {
					target = "-"
				}
				fmt.Printf("%s  %-10s %-30q %s\n",
					dimStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")), e.Kind, e.Query, target)
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// isConfigError reports whether err should stop startup.
func isConfigError(err error) bool {
	var cfgErr *config.ConfigurationError
	return errors.As(err, &cfgErr)
}
