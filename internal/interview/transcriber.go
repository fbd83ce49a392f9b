package interview

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lukasbauer/interviewer/internal/audio"
	"github.com/lukasbauer/interviewer/internal/stt"
	"github.com/rs/zerolog"
)

// AnswerTranscriber stages an uploaded answer, transcodes it and recognizes it.
type AnswerTranscriber struct {
	transcoder audio.Transcoder
	stt        stt.Client
	dir        string
	logger     zerolog.Logger
	newID      func() string
}

func NewAnswerTranscriber(transcoder audio.Transcoder, client stt.Client, dir string, logger zerolog.Logger) *AnswerTranscriber {
	return &AnswerTranscriber{
		transcoder: transcoder,
		stt:        client,
		dir:        dir,
		logger:     logger.With().Str("component", "transcriber").Logger(),
		newID:      uuid.NewString,
	}
}

// Stage writes the upload to the storage directory. Only the base name of the
// client filename is kept, prefixed with a request-unique id.
func (t *AnswerTranscriber) Stage(filename string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, `\`, "/")))
	if base == "/" || base == "." {
		return "", fmt.Errorf("%w: invalid filename %q", ErrValidation, filename)
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	path := filepath.Join(t.dir, t.newID()+"_"+base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}

	t.logger.Info().Str("path", path).Msg("uploaded file saved")
	return path, nil
}

// Transcribe converts the staged file to MP3 and returns the best transcript.
func (t *AnswerTranscriber) Transcribe(ctx context.Context, stagedPath string) (string, error) {
	mp3Path, err := t.transcoder.ToMP3(ctx, stagedPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	if _, err := os.Stat(mp3Path); err != nil {
		return "", fmt.Errorf("%w: converted file missing: %v", ErrConversion, err)
	}

	content, err := os.ReadFile(mp3Path)
	if err != nil {
		return "", fmt.Errorf("read converted audio: %w", err)
	}

	t.logger.Info().Str("path", mp3Path).Int("bytes", len(content)).Msg("sending audio to speech-to-text")
	transcription, err := t.stt.Recognize(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if transcription == "" {
		t.logger.Warn().Msg("no transcription results returned")
		return "", ErrEmptyTranscription
	}

	t.logger.Info().Str("transcription", transcription).Msg("transcribed answer")
	return transcription, nil
}
