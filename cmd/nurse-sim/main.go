// Command nurse-sim serves live simulated nurse and patient interviews over
// a websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"

	"github.com/safal938/nurse-sim/archive"
	"github.com/safal938/nurse-sim/capability"
	"github.com/safal938/nurse-sim/config"
	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/interview"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/model"
	"github.com/safal938/nurse-sim/model/anthropic"
	"github.com/safal938/nurse-sim/model/gemini"
	"github.com/safal938/nurse-sim/model/openai"
	"github.com/safal938/nurse-sim/pool"
	"github.com/safal938/nurse-sim/server"
	"github.com/safal938/nurse-sim/storage"
	"github.com/safal938/nurse-sim/voice"
	geminilive "github.com/safal938/nurse-sim/voice/gemini"
)

var version = "dev"

const banner = `
                                      _
 _ __  _   _ _ __ ___  ___        ___(_)_ __ ___
| '_ \| | | | '__/ __|/ _ \_____/ __| | '_ ' _ \
| | | | |_| | |  \__ \  __/_____\__ \ | | | | | |
|_| |_|\__,_|_|  |___/\___|     |___/_|_| |_| |_|
`

func main() {
	configPath := flag.String("config", os.Getenv("NURSE_SIM_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCfg := logging.DefaultLoggerConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	logCfg.Format = cfg.Logging.Format
	logCfg.Component = "nurse-sim"
	logger := logging.NewLogger(logCfg).WithContext("version", version)
	slog.SetDefault(logger.Slog())

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Provider:  %s\n", cfg.Provider.Name)
	green.Print("    ▶ ")
	fmt.Printf("Voice:     %s\n", cfg.Voice.Backend)
	green.Print("    ▶ ")
	fmt.Printf("Profiles:  %s\n\n", cfg.Storage.Backend)

	var genaiClient *genai.Client
	if cfg.Provider.Name == config.ProviderGemini {
		genaiClient, err = gemini.NewClient(ctx, gemini.ClientConfig{
			VertexAI: cfg.Provider.Project != "",
			Project:  cfg.Provider.Project,
			Location: cfg.Provider.Location,
			APIKey:   cfg.Provider.APIKey,
		})
		if err != nil {
			return err
		}
	}

	newModel := modelFactory(cfg.Provider, genaiClient)
	models := capability.Models{
		Diagnoser:   newModel(cfg.Models.Diagnoser),
		Evaluator:   newModel(cfg.Models.Evaluator),
		Ranker:      newModel(cfg.Models.Ranker),
		Advisor:     newModel(cfg.Models.Advisor),
		Highlighter: newModel(cfg.Models.Highlighter),
		Trigger:     newModel(cfg.Models.Trigger),
	}

	var dialer voice.Dialer
	switch cfg.Voice.Backend {
	case config.VoiceGeminiLive:
		dialer = geminilive.NewDialer(genaiClient, func(o *geminilive.Options) { o.Model = cfg.Voice.Model })
	default:
		dialer = voice.ModelDialer{Model: newModel(cfg.Voice.Model)}
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case config.StorageGCS:
		gcs, err := storage.NewGCS(ctx, cfg.Storage.Bucket)
		if err != nil {
			return err
		}
		defer gcs.Close()
		store = gcs
	default:
		store = storage.NewLocal(cfg.Storage.Root)
	}
	profiles := storage.Profiles{Store: store, Prefix: cfg.Storage.Prefix, Logger: logger.WithComponent("storage")}

	prompts, err := capability.LoadPrompts(cfg.Prompts.Dir)
	if err != nil {
		return err
	}

	var bank []core.Question
	if cfg.Questions.Bank != "" {
		if bank, err = pool.LoadQuestionBank(cfg.Questions.Bank); err != nil {
			return err
		}
		logger.Info("question bank loaded", "path", cfg.Questions.Bank, "questions", len(bank))
	}

	var archiver interview.Archiver
	if cfg.Archive.Path != "" {
		a, err := archive.Open(cfg.Archive.Path, logger.WithComponent("archive"))
		if err != nil {
			return err
		}
		defer a.Close()
		archiver = a
	}

	sim := &server.Simulator{
		Profiles:     profiles,
		Prompts:      prompts,
		Models:       models,
		QuestionBank: bank,
		Dialer:       dialer,
		NurseVoice:   cfg.Voice.NurseVoice,
		PatientVoice: cfg.Voice.PatientVoice,
		Settings: server.SessionSettings{
			PollInterval:      cfg.Session.PollInterval,
			DeliveryTimeout:   cfg.Session.DeliveryTimeout,
			TurnGap:           cfg.Session.TurnGap,
			AudioYield:        cfg.Session.AudioYield,
			CapabilityTimeout: cfg.Session.CapabilityTimeout,
			TriggerGate:       cfg.Session.TriggerGate,
			WakeOnAppend:      cfg.Session.WakeOnAppend,
			MaxCycles:         cfg.Session.MaxCycles,
		},
		Archiver: archiver,
		Logger:   logger,
	}

	handler := server.New(sim, profiles, func(o *server.Options) {
		o.AllowedOrigins = cfg.Server.AllowedOrigins
		o.StartTimeout = cfg.Server.StartTimeout
		o.BaseContext = ctx
		o.Logger = logger.WithComponent("server")
	})
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting nurse-sim", "http_addr", cfg.Server.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// modelFactory returns a constructor for models of the configured provider.
func modelFactory(p config.ProviderConfig, client *genai.Client) func(name string) model.Model {
	switch p.Name {
	case config.ProviderOpenAI:
		var opts []option.RequestOption
		if p.APIKey != "" {
			opts = append(opts, option.WithAPIKey(p.APIKey))
		}
		c := openaisdk.NewClient(opts...)
		return func(name string) model.Model {
			return openai.NewModelFromClient(&c, func(o *openai.Options) { o.Model = name })
		}
	case config.ProviderAnthropic:
		return func(name string) model.Model {
			return anthropic.NewModel(func(o *anthropic.Options) {
				o.Model = anthropicsdk.Model(name)
				o.APIKey = p.APIKey
			})
		}
	default:
		return func(name string) model.Model {
			return gemini.NewModelFromClient(client, func(o *gemini.Options) { o.Model = name })
		}
	}
}
