package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// EventType represents the type of interview event
type EventType string

const (
	EventQuestionSetGenerated      EventType = "question_set_generated"
	EventQuestionGenerationFailed  EventType = "question_generation_failed"
	EventQuestionAudioSynthesized  EventType = "question_audio_synthesized"
	EventQuestionAudioFailed       EventType = "question_audio_failed"
	EventAnswerConversionFailed    EventType = "answer_conversion_failed"
	EventAnswerTranscribed         EventType = "answer_transcribed"
	EventAnswerTranscriptionEmpty  EventType = "answer_transcription_empty"
	EventAnswerTranscriptionFailed EventType = "answer_transcription_failed"
	EventAnswerEvaluated           EventType = "answer_evaluated"
	EventAnswerEvaluationFailed    EventType = "answer_evaluation_failed"
)

// Schema creates the events table when it does not exist yet.
const Schema = `
	CREATE TABLE IF NOT EXISTS interview_events (
		id          BIGSERIAL PRIMARY KEY,
		request_id  TEXT NOT NULL,
		event_type  TEXT NOT NULL,
		event_data  JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

const writeTimeout = 2 * time.Second

// Execer is the subset of pgxpool.Pool used by the logger.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Logger provides async event logging to the database
type Logger struct {
	db     Execer
	pool   *ants.Pool
	logger zerolog.Logger
}

// New creates a new event logger. A nil pool falls back to plain goroutines.
func New(db Execer, pool *ants.Pool, logger zerolog.Logger) *Logger {
	return &Logger{
		db:     db,
		pool:   pool,
		logger: logger.With().Str("component", "eventlog").Logger(),
	}
}

// EnsureSchema creates the events table.
func (l *Logger) EnsureSchema(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	_, err := l.db.Exec(ctx, Schema)
	return err
}

// Log writes an event to the database synchronously
func (l *Logger) Log(ctx context.Context, requestID string, eventType EventType, data map[string]any) error {
	if l.db == nil || requestID == "" {
		return nil
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO interview_events (request_id, event_type, event_data)
		VALUES ($1, $2, $3)
	`, requestID, string(eventType), dataJSON)

	return err
}

// LogAsync logs an event without blocking the caller
func (l *Logger) LogAsync(requestID string, eventType EventType, data map[string]any) {
	if l.db == nil || requestID == "" {
		return
	}

	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.Log(ctx, requestID, eventType, data); err != nil {
			l.logger.Warn().Err(err).Str("event", string(eventType)).Msg("failed to write event")
		}
	}

	if l.pool == nil {
		go write()
		return
	}
	if err := l.pool.Submit(write); err != nil {
		l.logger.Warn().Err(err).Str("event", string(eventType)).Msg("event pool rejected write")
	}
}
