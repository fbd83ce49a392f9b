package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/lukasbauer/interviewer/internal/eventlog"
	"github.com/lukasbauer/interviewer/internal/interview"
	"github.com/rs/zerolog"
)

// QuestionGenerator produces a question set.
type QuestionGenerator interface {
	Generate(ctx context.Context, n int) ([]interview.Question, error)
}

// SpeechSynthesizer stages question audio on disk.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, question string) (*interview.SynthesizedAudio, error)
}

// AnswerTranscriber stages and transcribes an uploaded answer.
type AnswerTranscriber interface {
	Stage(filename string, r io.Reader) (string, error)
	Transcribe(ctx context.Context, stagedPath string) (string, error)
}

// AnswerEvaluator scores an answer.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, question, answer string) (*interview.Evaluation, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	// Default number of questions when the request has no count.
	QuestionCount int

	// Bound applied to each upstream call; zero means unbounded.
	UpstreamTimeout time.Duration

	// Directory holding staged audio, reported by the health check.
	StorageDir string

	// Upper bound on multipart upload size.
	MaxUploadBytes int64
}

// Services are the interview components the handlers delegate to.
type Services struct {
	Questions   QuestionGenerator
	Speech      SpeechSynthesizer
	Transcriber AnswerTranscriber
	Evaluator   AnswerEvaluator
	EventLog    *eventlog.Logger
	DB          Pinger
}

type Router struct {
	cfg         RouterConfig
	logger      zerolog.Logger
	questions   QuestionGenerator
	speech      SpeechSynthesizer
	transcriber AnswerTranscriber
	evaluator   AnswerEvaluator
	eventLog    *eventlog.Logger
	db          Pinger
	mux         *http.ServeMux
}

const defaultMaxUploadBytes = 64 << 20

func NewRouter(cfg RouterConfig, logger zerolog.Logger, svc Services) http.Handler {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = interview.DefaultQuestionCount
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if svc.EventLog == nil {
		svc.EventLog = eventlog.New(nil, nil, logger)
	}

	r := &Router{
		cfg:         cfg,
		logger:      logger,
		questions:   svc.Questions,
		speech:      svc.Speech,
		transcriber: svc.Transcriber,
		evaluator:   svc.Evaluator,
		eventLog:    svc.EventLog,
		db:          svc.DB,
		mux:         http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withRequestID(withRequestLogging(logger, withCORS(r.mux))))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Interview flow
	r.mux.HandleFunc("POST /start_interview", r.handleStartInterview)
	r.mux.HandleFunc("POST /get_question_audio", r.handleGetQuestionAudio)
	r.mux.HandleFunc("POST /submit_audio_answer", r.handleSubmitAudioAnswer)
	r.mux.HandleFunc("POST /evaluate_answer", r.handleEvaluateAnswer)
}

// upstreamContext bounds external calls when an upstream timeout is configured.
func (r *Router) upstreamContext(req *http.Request) (context.Context, context.CancelFunc) {
	if r.cfg.UpstreamTimeout > 0 {
		return context.WithTimeout(req.Context(), r.cfg.UpstreamTimeout)
	}
	return context.WithCancel(req.Context())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type requestIDKey struct{}

const requestIDHeader = "X-Request-ID"

// withRequestID propagates the caller's request id or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func withRequestLogging(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, req)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		event := logger.Info()
		if rec.status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Str("request_id", requestID(req.Context())).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetTag("request_id", requestID(req.Context()))
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
