package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cft-yamuna/quiz-agent/internal/app"
	"github.com/cft-yamuna/quiz-agent/internal/config"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/ui"
	"github.com/cft-yamuna/quiz-agent/internal/web"
)

var (
	version     = "0.1.0"
	cfgFile     string
	model       string
	verbose     bool
	projectName string
	interactive bool
	webMode     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quizagent [brief]",
		Short: "Builds React quiz apps from a natural language brief",
		Long: `quizagent drives a Gemini model through a tool loop that writes a complete
React/Vite quiz app into output/<project>. A connected Figma design is fetched,
replicated and validated with screenshots.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./quizagent.yaml or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "default model name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr as well as the log file")

	rootCmd.Flags().StringVarP(&projectName, "name", "n", "", "project name, used as the output directory name")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run in interactive mode")
	rootCmd.Flags().BoolVar(&webMode, "web", false, "launch the web interface")

	rootCmd.AddCommand(
		newWebCmd(),
		newProjectsCmd(),
		newRunCmd(),
		newSnapshotsCmd(),
		newAuditCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("quizagent version %s\n", version)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch app.Classify(err) {
	case app.ErrCodeConfig:
		return 2
	case app.ErrCodeCancelled:
		return 130
	default:
		return 1
	}
}

// loadConfig loads the configuration and sets up logging. Commands that
// talk to the model pass requireAuth.
func loadConfig(requireAuth bool) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version
	if model != "" {
		cfg.Model.Name = model
	}
	if err := cfg.Validate(); err != nil && (requireAuth || !errors.Is(err, config.ErrMissingAuth)) {
		if errors.Is(err, config.ErrMissingAuth) {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY in the environment or .env", err)
		}
		return nil, err
	}

	opts := logging.Options{Level: logging.ParseLevel(cfg.Logging.Level)}
	if cfg.Logging.File {
		opts.Dir = cfg.Path(cfg.Paths.LogDir)
	}
	if verbose {
		opts.Console = os.Stderr
	}
	if err := logging.Setup(opts); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}

// newApp loads the config and assembles the application.
func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig(true)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return a, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if webMode {
		return runWeb(cmd.Context())
	}

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer logging.Close()
	defer a.Close()

	console := ui.NewConsole(os.Stdin, os.Stdout)
	console.Banner(a.FigmaConfigured())

	if interactive || len(args) == 0 {
		return runInteractive(a, console)
	}
	return runSingle(a, console, args[0])
}

func runWeb(ctx context.Context) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer logging.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := app.InterruptContext(ctx)
	defer stop()

	addr := a.Config().Web.Addr
	fmt.Printf("Dashboard API listening on http://localhost%s\n", addr)
	return web.NewServer(a).ListenAndServe(ctx, addr)
}
