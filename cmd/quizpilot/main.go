package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/quizpilot/quizpilot"
	"github.com/quizpilot/quizpilot/bank"
	"github.com/quizpilot/quizpilot/ledger"
	"github.com/quizpilot/quizpilot/meter"
	"github.com/quizpilot/quizpilot/source/gemini"
	"github.com/quizpilot/quizpilot/source/openai"
)

func main() {
	configPath := flag.String("config", "quizpilot.yaml", "Path to the YAML config file")
	preferredModel := flag.String("model", "", "Preferred model (overrides config)")
	turns := flag.Int("turns", 1, "Number of quiz turns to run")
	reveal := flag.Bool("reveal", false, "Print the correct answer and explanation")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	// Missing .env is fine; the config may carry keys inline.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*configPath, *preferredModel, *turns, *reveal, logger); err != nil {
		logger.Error("quizpilot failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, preferredModel string, turns int, reveal bool, logger *slog.Logger) error {
	cfg, err := quizpilot.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if preferredModel == "" {
		preferredModel = cfg.PreferredModel
	}

	qbank, err := bank.LoadFile(cfg.Bank.Path, bank.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	logger.Info("question bank loaded", "path", cfg.Bank.Path, "questions", qbank.Size())

	led, closeLedger, err := buildLedger(cfg.Ledger, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer closeLedger()

	src, err := buildSource(cfg.Source)
	if err != nil {
		return err
	}

	ctrl, err := quizpilot.NewController(src, qbank, led, cfg.Topics,
		quizpilot.WithMeter(meter.NewLogMeter(logger)),
		quizpilot.WithEstimator(quizpilot.Estimator{SafetyMargin: cfg.Quota.SafetyMargin}),
		quizpilot.WithNearLimitThreshold(cfg.Quota.NearLimitThreshold),
	)
	if err != nil {
		return err
	}

	for i := 0; i < turns; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		result, err := ctrl.NextQuestion(ctx, quizpilot.TurnRequest{PreferredModel: preferredModel})
		if err != nil {
			cancel()
			if errors.Is(err, quizpilot.ErrNoQuestion) {
				return fmt.Errorf("no question available: remote disabled or failed and the local bank is empty")
			}
			return err
		}

		led.Record(ctx, result.TopicID, result.Origin)
		cancel()

		printQuestion(result, reveal)
	}

	return nil
}

func buildLedger(cfg quizpilot.LedgerConfig, logger *slog.Logger) (quizpilot.Ledger, func(), error) {
	switch cfg.Backend {
	case "file":
		return ledger.NewFile(cfg.Path, ledger.WithLogger(logger)), func() {}, nil
	case "sqlite":
		s, err := ledger.NewSQLite(cfg.Path, ledger.WithSQLiteLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return ledger.NewMemory(), func() {}, nil
	}
}

func buildSource(cfg quizpilot.SourceConfig) (quizpilot.Source, error) {
	switch cfg.Kind {
	case "gemini":
		var opts []gemini.Option
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		return gemini.New(cfg.APIKey, opts...), nil
	case "openai":
		return openai.New(cfg.APIKey), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

func printQuestion(result quizpilot.TurnResult, reveal bool) {
	q := result.Question

	fmt.Printf("\n[%s] %s", result.TopicID, result.Origin)
	if result.ModelUsed != "" {
		fmt.Printf(" (%s)", result.ModelUsed)
	}
	fmt.Printf("\n\n%s\n\n", q.Text)

	labels := []string{"A", "B", "C", "D"}
	for i, opt := range q.Options {
		fmt.Printf("  %s) %s\n", labels[i], opt)
	}

	if reveal {
		fmt.Printf("\nAnswer: %s) %s\n%s\n", labels[q.CorrectAnswer], q.Options[q.CorrectAnswer], q.Explanation)
	}
}
