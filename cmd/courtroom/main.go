package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtsim/agents"
	"courtsim/cases"
	"courtsim/config"
	"courtsim/internal/trialevents"
	"courtsim/internal/tui"
	"courtsim/internal/voice"
	"courtsim/logging"
	"courtsim/models"
	"courtsim/services"
	"courtsim/trial"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	caseID     string
	generate   string
	seed       int64
	ordering   string
	policy     string
	delay      time.Duration
	retries    int
	speak      bool
	lang       string
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:           "courtroom",
		Short:         "Run courtroom role-play trials from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "./config/config.prod.yml", "path to the YAML configuration")

	trialFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&opts.caseID, "case", "", "case id from the catalog")
		cmd.Flags().StringVar(&opts.generate, "generate", "", "play a generated case of this type instead of a catalog case")
		cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "seed for --generate")
		cmd.Flags().StringVar(&opts.ordering, "ordering", "", "phase ordering: standard or collapsed")
		cmd.Flags().StringVar(&opts.policy, "policy", "", "generation failure policy: surface or fallback")
		cmd.Flags().IntVar(&opts.retries, "retries", 1, "retries per failed generation")
	}

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Auto-play a whole trial and print the transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), opts)
		},
	}
	trialFlags(playCmd)
	playCmd.Flags().DurationVar(&opts.delay, "delay", 0, "pause between turns")
	playCmd.Flags().BoolVar(&opts.speak, "speak", false, "narrate each turn through the voice output")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Step through a trial in an interactive terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	trialFlags(tuiCmd)
	tuiCmd.Flags().DurationVar(&opts.delay, "delay", 500*time.Millisecond, "pause between turns in auto mode")

	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "List the case catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			list, err := cases.NewJSONStore(cfg.Cases.CatalogPath).List(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-22s %s\n", c.ID, c.CaseType, c.Title)
			}
			return nil
		},
	}

	generateCmd := &cobra.Command{
		Use:   "generate <case type>",
		Short: "Print a generated case as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cases.NewGenerator(opts.seed).Generate(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
	generateCmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")

	juryCmd := &cobra.Command{
		Use:   "jury",
		Short: "Print a generated jury pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, j := range cases.NewGenerator(opts.seed).JuryPool() {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-10s %-22s bias %+.2f\n", j.ID, j.Name, j.Background, j.Bias)
			}
			return nil
		},
	}
	juryCmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")

	root.AddCommand(playCmd, tuiCmd, casesCmd, generateCmd, juryCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the case and builds a session wired to the configured generator
func setup(ctx context.Context, opts *options, log *zap.SugaredLogger, events trialevents.Publisher) (*trial.Session, func(), error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	opts.lang = cfg.Trial.Language

	var c *models.Case
	switch {
	case opts.generate != "":
		c, err = cases.NewGenerator(opts.seed).Generate(opts.generate)
	case opts.caseID != "":
		c, err = cases.NewJSONStore(cfg.Cases.CatalogPath).Load(ctx, opts.caseID)
	default:
		err = fmt.Errorf("pass --case or --generate")
	}
	if err != nil {
		return nil, nil, err
	}

	ordering, err := trial.OrderingByName(firstNonEmpty(opts.ordering, cfg.Trial.Ordering))
	if err != nil {
		return nil, nil, err
	}
	policy, err := trial.ParseFailurePolicy(firstNonEmpty(opts.policy, cfg.Trial.FailurePolicy))
	if err != nil {
		return nil, nil, err
	}

	gen, err := services.NewGeminiGenerator(ctx, cfg.Gemini.ApiKey, cfg.Gemini.Model, cfg.Trial.GenerationTimeout)
	if err != nil {
		return nil, nil, err
	}
	s, err := trial.NewSession(c, agents.NewPanel(c, gen), trial.Options{
		Ordering:          ordering,
		Policy:            policy,
		TranscriptWindow:  cfg.Trial.TranscriptWindow,
		GenerationTimeout: cfg.Trial.GenerationTimeout,
		UndoDepth:         cfg.Trial.UndoDepth,
		Events:            events,
		Logger:            log,
	})
	if err != nil {
		gen.Close()
		return nil, nil, err
	}
	return s, func() { gen.Close() }, nil
}

func runPlay(ctx context.Context, opts *options) error {
	log := logging.Must("production")
	defer log.Sync()

	hub := trialevents.NewHub()
	s, closeFn, err := setup(ctx, opts, log, hub)
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.speak {
		speaker := voice.NewAsync(voice.LogSpeaker{Log: log}, 32, log)
		events, cancel := hub.Subscribe(s.ID())
		done := make(chan struct{})
		go func() {
			defer close(done)
			voice.Narrate(ctx, events, speaker, opts.lang)
		}()
		defer func() {
			cancel()
			<-done
			speaker.Close()
		}()
	}

	c := s.Case()
	fmt.Printf("%s (%s)\n\n", c.Title, c.CaseType)
	var phase models.Phase
	auto := &trial.Autoplay{Session: s, Retries: opts.retries, Delay: opts.delay}
	err = auto.Run(ctx, func(e models.TranscriptEntry) {
		if e.Phase != phase {
			phase = e.Phase
			fmt.Printf("== %s ==\n", phase.Title())
		}
		label := e.Label
		if e.Witness != "" {
			label = fmt.Sprintf("%s (%s)", label, e.Witness)
		}
		fmt.Printf("%s: %s\n\n", label, e.Content)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Trial completed with %d transcript entries.\n", len(s.GetState().Transcript))
	return nil
}

func runTUI(ctx context.Context, opts *options) error {
	// the terminal belongs to the UI, so only errors are logged
	log := logging.Must("production").Desugar().WithOptions(zap.IncreaseLevel(zap.ErrorLevel)).Sugar()
	s, closeFn, err := setup(ctx, opts, log, trialevents.Nop{})
	if err != nil {
		return err
	}
	defer closeFn()
	return tui.Run(ctx, &trial.Autoplay{Session: s, Retries: opts.retries, Delay: opts.delay})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
