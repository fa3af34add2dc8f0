package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/dskvich/voicechat-telegram-bot/pkg/api/handler"
	"github.com/dskvich/voicechat-telegram-bot/pkg/calls"
	"github.com/dskvich/voicechat-telegram-bot/pkg/gemini"
	"github.com/dskvich/voicechat-telegram-bot/pkg/logger"
	"github.com/dskvich/voicechat-telegram-bot/pkg/media"
	"github.com/dskvich/voicechat-telegram-bot/pkg/openai"
	"github.com/dskvich/voicechat-telegram-bot/pkg/repository"
	"github.com/dskvich/voicechat-telegram-bot/pkg/services"
	"github.com/dskvich/voicechat-telegram-bot/pkg/telegram"
	"github.com/dskvich/voicechat-telegram-bot/pkg/workers"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

type Config struct {
	TelegramAPIID         int           `env:"TELEGRAM_API_ID,required"`
	TelegramAPIHash       string        `env:"TELEGRAM_API_HASH,required"`
	TelegramBotToken      string        `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramUpdateTimeout int           `env:"TELEGRAM_UPDATE_TIMEOUT" envDefault:"60"`
	LLMProvider           string        `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIToken           string        `env:"OPEN_AI_TOKEN"`
	OpenAIBaseURL         string        `env:"OPEN_AI_BASE_URL"`
	OpenAIModel           string        `env:"OPEN_AI_MODEL" envDefault:"gpt-3.5-turbo"`
	GoogleAPIKey          string        `env:"GOOGLE_API_KEY"`
	GeminiModel           string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	DownloadsDir          string        `env:"DOWNLOADS_DIR" envDefault:"downloads"`
	FetchSlots            int           `env:"FETCH_SLOTS" envDefault:"1"`
	YtdlpProxy            string        `env:"YTDLP_PROXY"`
	NatsURL               string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NatsCredsFile         string        `env:"NATS_CREDS_FILE"`
	CallsSubjectPrefix    string        `env:"CALLS_SUBJECT_PREFIX" envDefault:"calls"`
	CallsRequestTimeout   time.Duration `env:"CALLS_REQUEST_TIMEOUT" envDefault:"15s"`
	HTTPAddr              string        `env:"HTTP_ADDR"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"debug"`
	LogNoColor            bool          `env:"LOG_NO_COLOR" envDefault:"false"`
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case providerOpenAI:
		if c.OpenAIToken == "" {
			return errors.New("OPEN_AI_TOKEN is required for the openai provider")
		}
	case providerGemini:
		if c.GoogleAPIKey == "" {
			return errors.New("GOOGLE_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.FetchSlots < 1 {
		return fmt.Errorf("FETCH_SLOTS must be positive, got %d", c.FetchSlots)
	}
	return nil
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func runMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := *logger.DefaultOptions
	opts.Level = logger.ParseLevel(cfg.LogLevel)
	opts.NoColor = cfg.LogNoColor
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &opts)))

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	fetcher, err := media.NewFetcher(
		cfg.DownloadsDir,
		cfg.FetchSlots,
		media.YouTubeSearcher{},
		&media.YtdlpDownloader{Proxy: cfg.YtdlpProxy},
	)
	if err != nil {
		return fmt.Errorf("creating media fetcher: %w", err)
	}
	if n, err := fetcher.PurgeStale(ctx); err != nil {
		slog.Warn("purging stale downloads", logger.Err(err))
	} else if n > 0 {
		slog.Info("purged stale downloads", "count", n)
	}

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}

	conn, err := calls.Connect(cfg.NatsURL, cfg.NatsCredsFile)
	if err != nil {
		return fmt.Errorf("creating calls gateway connection: %w", err)
	}
	callsClient, err := calls.NewClient(conn, cfg.CallsSubjectPrefix, cfg.CallsRequestTimeout, calls.Credentials{
		APIID:    cfg.TelegramAPIID,
		APIHash:  cfg.TelegramAPIHash,
		BotToken: cfg.TelegramBotToken,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating calls client: %w", err)
	}

	sessionRepository := repository.NewSessionRepository()
	voiceService := services.NewVoiceService(callsClient, sessionRepository)
	assistantService := services.NewAssistantService(completer)
	commandService := services.NewCommandService(fetcher, voiceService, assistantService)

	telegramClient, err := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramUpdateTimeout)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating telegram client: %w", err)
	}

	if err := callsClient.Start(ctx, voiceService.HandleStreamEnd); err != nil {
		return errors.Join(err, workers.StopAll(callsClient, telegramClient))
	}

	workerGroup, err := setupWorkers(cfg, telegramClient, commandService, sessionRepository, assistantService)
	if err != nil {
		return errors.Join(err, workers.StopAll(callsClient, telegramClient))
	}

	runErr := workerGroup.Start(ctx)
	if err := workers.StopAll(callsClient, telegramClient); err != nil {
		slog.Error("stopping clients", logger.Err(err))
	}
	return runErr
}

func newCompleter(ctx context.Context, cfg *Config) (services.Completer, error) {
	switch cfg.LLMProvider {
	case providerGemini:
		c, err := gemini.NewClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return c, nil
	default:
		c, err := openai.NewClient(cfg.OpenAIToken, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, fmt.Errorf("creating open ai client: %w", err)
		}
		return c, nil
	}
}

func setupWorkers(
	cfg *Config,
	telegramClient workers.TelegramClient,
	dispatcher workers.Dispatcher,
	sessions handler.SessionLister,
	assistant handler.Assistant,
) (workers.Group, error) {
	var workerGroup workers.Group

	if worker, err := workers.NewTelegramUpdateListener(telegramClient, dispatcher); err == nil {
		workerGroup = append(workerGroup, worker)
	} else {
		return nil, err
	}

	if cfg.HTTPAddr != "" {
		status := handler.NewStatus(sessions, assistant)
		workerGroup = append(workerGroup, workers.NewHTTPServer(cfg.HTTPAddr, status.Routes()))
	}

	return workerGroup, nil
}
