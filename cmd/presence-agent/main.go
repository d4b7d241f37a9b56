package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"presence-agent/internal/auth"
	"presence-agent/internal/command"
	"presence-agent/internal/config"
	"presence-agent/internal/controller"
	"presence-agent/internal/history"
	"presence-agent/internal/llm"
	"presence-agent/internal/logging"
	"presence-agent/internal/maintenance"
	"presence-agent/internal/persona"
	"presence-agent/internal/schedule"
	"presence-agent/internal/storage"
	"presence-agent/internal/utterance"
	"presence-agent/internal/voice"
)

var rootCmd = &cobra.Command{
	Use:           "presence-agent",
	Short:         "Ambient voice companion with moods, chimes and reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the control loop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	rootCmd.AddCommand(runCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "presence-agent:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFilePath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			logger.Error("database failed its integrity check; move it aside or restore a backup", zap.String("path", cfg.DBPath), zap.Error(err))
		}
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	loc := cfg.Location()

	personas, err := persona.NewHolder(cfg.PersonaPath, logger.Named("persona"))
	if err != nil {
		return err
	}
	defer personas.Close()
	if cfg.PersonaWatch && cfg.PersonaPath != "" {
		if err := personas.Watch(ctx); err != nil {
			logger.Warn("persona hot reload disabled", zap.Error(err))
		}
	}

	replier, err := llm.NewReplierFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	hist := history.NewManager(db, cfg.HistoryWindow)
	if err := hist.Load(ctx); err != nil {
		logger.Warn("chat history not restored", zap.Error(err))
	}

	mixer := voice.NewSoftMixer(60)
	transport, err := newTransport(ctx, cfg, personas.Profile().Name, mixer, logger.Named("voice"))
	if err != nil {
		return err
	}

	sched := schedule.New(db, logger.Named("schedule"))
	dispatcher := command.NewDispatcher(db, sched, mixer,
		command.WithLocation(loc),
		command.WithLogger(logger.Named("command")))

	housekeeping := maintenance.New(db, cfg.HistoryMaxRows, cfg.MaintenanceSpec, loc, logger.Named("maintenance"))
	if err := housekeeping.Start(); err != nil {
		return err
	}
	defer housekeeping.Stop()

	ctl, err := controller.New(ctx, controller.Deps{
		Listener:   transport,
		Speaker:    transport,
		Replier:    replier,
		Dispatcher: dispatcher,
		Scheduler:  sched,
		Store:      db,
		History:    hist,
		Persona:    personas,
		Wake:       utterance.NewWakeDetector(cfg.WakeWords, utterance.DefaultVariants),
		Phrases:    utterance.DefaultPhrases(cfg.WakeWords),
		Rand:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid()))),
		Logger:     logger.Named("controller"),
	}, controller.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	logger.Info("presence-agent started",
		zap.String("transport", string(cfg.Transport)),
		zap.String("llm_provider", string(cfg.LLMProvider)),
		zap.String("db", cfg.DBPath))
	return ctl.Run(ctx)
}

func newTransport(ctx context.Context, cfg *config.Config, name string, mixer *voice.SoftMixer, logger *zap.Logger) (voice.Transport, error) {
	switch cfg.Transport {
	case config.TransportTelegram:
		tg, err := voice.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, auth.New(cfg.AllowedUsers), mixer, logger)
		if err != nil {
			return nil, err
		}
		tg.Start(ctx)
		return tg, nil
	default:
		return voice.NewConsole(os.Stdin, os.Stdout, name, mixer, logger), nil
	}
}
