package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Dhanushraagav/ai-interview-platform/internal/accounts"
	"github.com/Dhanushraagav/ai-interview-platform/internal/bank"
	"github.com/Dhanushraagav/ai-interview-platform/internal/engine"
	"github.com/Dhanushraagav/ai-interview-platform/internal/handler"
	appI18n "github.com/Dhanushraagav/ai-interview-platform/internal/i18n"
	"github.com/Dhanushraagav/ai-interview-platform/internal/scorer"
	"github.com/Dhanushraagav/ai-interview-platform/internal/session"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interviewd",
		Short: "Scripted technical interview platform",
	}

	serve := serveCmd()
	root.AddCommand(serve, interviewCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `interviewd --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP interview server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "interview.db", "SQLite accounts database path")
	f.StringSliceP("bank", "b", nil, "Paths to extra question bank YAML files (repeatable)")
	f.StringP("lang", "l", "en", "Feedback language (en, ru)")
	f.String("scorer", "keyword", "Scoring backend (keyword, llm)")
	f.Int("depth-tokens", scorer.DefaultDepthSaturation, "Token count at which depth credit saturates")
	f.Int("min-answer-chars", scorer.DefaultMinAnswerChars, "Minimum answer length in characters for relevance credit")
	f.Duration("session-ttl", session.DefaultTTL, "Idle timeout before a session is evicted")
	f.Duration("sweep-interval", session.DefaultSweepInterval, "How often the eviction sweep runs")
	f.Duration("token-ttl", accounts.DefaultTokenTTL, "Login token lifetime")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL (llm scorer)")
	f.String("llm-key", "ollama", "API key for the LLM scorer")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func interviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run an interview in the terminal",
		RunE:  runInterview,
	}
	f := cmd.Flags()
	f.StringSliceP("bank", "b", nil, "Paths to extra question bank YAML files (repeatable)")
	f.StringP("lang", "l", "en", "Feedback language (en, ru)")
	f.StringP("topic", "t", "", "Interview topic (prompted when empty)")
	f.String("user", "local", "Identity recorded on the session")
	f.Int("depth-tokens", scorer.DefaultDepthSaturation, "Token count at which depth credit saturates")
	f.Int("min-answer-chars", scorer.DefaultMinAnswerChars, "Minimum answer length in characters for relevance credit")
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INTERVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("interview")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/interview")
	v.AddConfigPath("/etc/interview")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func buildBank(v *viper.Viper) (*bank.Bank, error) {
	b, err := bank.Default()
	if err != nil {
		return nil, err
	}
	for _, path := range v.GetStringSlice("bank") {
		if err := b.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func buildScorer(v *viper.Viper) (scorer.Scorer, error) {
	cfg := scorer.Config{
		DepthSaturation: v.GetInt("depth-tokens"),
		MinAnswerChars:  v.GetInt("min-answer-chars"),
	}
	switch strings.ToLower(v.GetString("scorer")) {
	case "", "keyword":
		return scorer.NewKeyword(cfg), nil
	case "llm":
		llm := scorer.NewLLM(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
		if err := llm.Ping(context.Background()); err != nil {
			return nil, fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM scorer OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", v.GetString("scorer"))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	b, err := buildBank(v)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	sc, err := buildScorer(v)
	if err != nil {
		return err
	}

	db, err := accounts.New(v.GetString("db"), v.GetDuration("token-ttl"))
	if err != nil {
		return fmt.Errorf("open accounts database: %w", err)
	}
	defer db.Close()

	if err := db.CleanupExpiredTokens(); err != nil {
		slog.Warn("cleanup expired tokens", "error", err)
	}

	store := session.New(v.GetDuration("session-ttl"), v.GetDuration("sweep-interval"))
	defer store.Close()

	eng := engine.New(b, store, sc)
	h := handler.New(eng, db)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"topics", len(b.Topics()),
		"scorer", v.GetString("scorer"),
		"session_ttl", v.GetDuration("session-ttl"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runInterview(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	b, err := buildBank(v)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	store := session.New(0, 0)
	defer store.Close()

	eng := engine.New(b, store, scorer.NewKeyword(scorer.Config{
		DepthSaturation: v.GetInt("depth-tokens"),
		MinAnswerChars:  v.GetInt("min-answer-chars"),
	}))

	topic := v.GetString("topic")
	if topic == "" {
		prompt := promptui.Select{
			Label: "Choose an interview topic",
			Items: b.Topics(),
			Size:  len(b.Topics()),
		}
		_, topic, err = prompt.Run()
		if err != nil {
			return fmt.Errorf("select topic: %w", err)
		}
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	identity := v.GetString("user")

	start, err := eng.Start(ctx, topic, identity)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s interview: %d questions\n", start.Topic, start.TotalQuestions)

	question := start.Question
	number := start.QuestionNumber
	for {
		fmt.Printf("\nQuestion %d/%d: %s\n", number, start.TotalQuestions, question)

		prompt := promptui.Prompt{Label: "Your answer"}
		answer, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("read answer: %w", err)
		}

		result, err := eng.Submit(ctx, start.SessionID, identity, answer)
		if err != nil {
			return err
		}

		fmt.Printf("Score: %.1f/10. %s\n", result.Score, result.Feedback)
		if result.IsComplete {
			fmt.Printf("\n%s\n", result.Message)
			break
		}
		question = result.NextQuestion
		number = result.QuestionNumber
	}

	report, err := eng.Report(ctx, start.SessionID, identity)
	if err != nil {
		return err
	}
	fmt.Printf("\nFinal score: %.1f/%.1f\n", report.TotalScore, report.MaxScore)
	for _, q := range report.Questions {
		fmt.Printf("  Q%d (%.1f): %s\n", q.QuestionNumber, q.Score, q.Feedback)
	}
	return nil
}
