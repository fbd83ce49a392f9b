package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lukasbauer/interviewer/internal/audio"
	"github.com/lukasbauer/interviewer/internal/cache"
	"github.com/lukasbauer/interviewer/internal/eventlog"
	"github.com/lukasbauer/interviewer/internal/httpapi"
	"github.com/lukasbauer/interviewer/internal/interview"
	"github.com/lukasbauer/interviewer/internal/llm"
	"github.com/lukasbauer/interviewer/internal/stt"
	"github.com/lukasbauer/interviewer/internal/tts"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

type App struct {
	cfg      Config
	logger   zerolog.Logger
	db       *pgxpool.Pool
	pool     *ants.Pool
	eventLog *eventlog.Logger
	closers  []io.Closer

	questions   *interview.QuestionGenerator
	speech      *interview.SpeechSynthesizer
	transcriber *interview.AnswerTranscriber
	evaluator   *interview.AnswerEvaluator
}

func New(cfg Config, logger zerolog.Logger) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, db: db}

	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	panicHandler := func(p any) {
		a.logger.Error().Interface("panic", p).Msg("event worker panicked")
	}
	pool, err := ants.NewPool(a.cfg.EventWorkers, ants.WithNonblocking(true), ants.WithPanicHandler(panicHandler))
	if err != nil {
		return fmt.Errorf("event pool: %w", err)
	}
	a.pool = pool

	a.eventLog = eventlog.New(a.db, pool, a.logger)
	if err := a.eventLog.EnsureSchema(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("event log schema not ensured; events may fail to write")
	}

	model, err := a.newLLM(ctx)
	if err != nil {
		return err
	}
	speaker, err := a.newTTS(ctx)
	if err != nil {
		return err
	}
	recognizer, err := a.newSTT(ctx)
	if err != nil {
		return err
	}
	transcoder := audio.NewFFmpegTranscoder(a.cfg.FFmpegPath, 0, a.logger)

	a.questions = interview.NewQuestionGenerator(model, a.logger)
	a.evaluator = interview.NewAnswerEvaluator(model, a.logger)
	a.speech = interview.NewSpeechSynthesizer(speaker, a.cfg.StorageDir, a.logger)
	a.transcriber = interview.NewAnswerTranscriber(transcoder, recognizer, a.cfg.StorageDir, a.logger)

	a.logger.Info().
		Str("llm", a.cfg.LLMProvider).
		Str("tts", a.cfg.TTSProvider).
		Str("stt", a.cfg.STTProvider).
		Str("storage", a.cfg.StorageDir).
		Msg("interview services ready")
	return nil
}

func (a *App) newLLM(ctx context.Context) (llm.Client, error) {
	switch a.cfg.LLMProvider {
	case ProviderOpenAI:
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey: a.cfg.OpenAIAPIKey,
			Model:  a.cfg.OpenAIModel,
		}), nil
	case ProviderGemini:
		g, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: a.cfg.GeminiAPIKey,
			Model:  a.cfg.GeminiModel,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown LLM_PROVIDER %q", a.cfg.LLMProvider)
}

func (a *App) newTTS(ctx context.Context) (tts.Client, error) {
	var (
		client tts.Client
		prefix string
	)

	switch a.cfg.TTSProvider {
	case ProviderElevenLabs:
		client = tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:     a.cfg.ElevenLabsAPIKey,
			VoiceID:    a.cfg.TTSVoiceID,
			Stability:  a.cfg.TTSStability,
			Similarity: a.cfg.TTSSimilarity,
			HTTPClient: newHTTPClient(),
		})
		prefix = "elevenlabs:" + a.cfg.TTSVoiceID
	case ProviderGoogle:
		g, err := tts.NewGoogleClient(ctx, tts.GoogleConfig{
			CredentialsFile: a.cfg.GoogleCredentialsFile,
			LanguageCode:    "en-US",
		})
		if err != nil {
			return nil, fmt.Errorf("google tts: %w", err)
		}
		a.closers = append(a.closers, g)
		client = g
		prefix = "google:en-US"
	default:
		return nil, fmt.Errorf("unknown TTS_PROVIDER %q", a.cfg.TTSProvider)
	}

	if a.cfg.TTSCacheTTL <= 0 {
		return client, nil
	}
	return tts.NewCachedClient(client, a.newCache(ctx), a.cfg.TTSCacheTTL, prefix, a.logger), nil
}

// newCache prefers Redis and falls back to the in-process cache.
func (a *App) newCache(ctx context.Context) cache.Cache {
	if a.cfg.RedisAddr == "" {
		return cache.NewMemory(a.cfg.TTSCacheEntries)
	}
	r, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("redis unavailable, using in-memory audio cache")
		return cache.NewMemory(a.cfg.TTSCacheEntries)
	}
	a.closers = append(a.closers, r)
	return r
}

func (a *App) newSTT(ctx context.Context) (stt.Client, error) {
	recognition := stt.DefaultRecognitionConfig()

	switch a.cfg.STTProvider {
	case ProviderDeepgram:
		return stt.NewDeepgramClient(stt.DeepgramConfig{
			APIKey:      a.cfg.DeepgramAPIKey,
			Punctuate:   true,
			Recognition: recognition,
		}), nil
	case ProviderGoogle:
		g, err := stt.NewGoogleClient(ctx, stt.GoogleConfig{
			CredentialsFile: a.cfg.GoogleCredentialsFile,
			Recognition:     recognition,
		})
		if err != nil {
			return nil, fmt.Errorf("google speech: %w", err)
		}
		a.closers = append(a.closers, g)
		return g, nil
	}
	return nil, fmt.Errorf("unknown STT_PROVIDER %q", a.cfg.STTProvider)
}

// newHTTPClient keeps connections alive for repeated TTS calls to a single host.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		QuestionCount:   a.cfg.QuestionCount,
		UpstreamTimeout: a.cfg.UpstreamTimeout,
		StorageDir:      a.cfg.StorageDir,
	}
	return httpapi.NewRouter(routerCfg, a.logger, httpapi.Services{
		Questions:   a.questions,
		Speech:      a.speech,
		Transcriber: a.transcriber,
		Evaluator:   a.evaluator,
		EventLog:    a.eventLog,
		DB:          a.db,
	})
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		if err := a.pool.ReleaseTimeout(3 * time.Second); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	return errors.Join(errs...)
}
