package interview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lukasbauer/interviewer/internal/tts"
	"github.com/rs/zerolog"
)

// SynthesizedAudio is question audio staged on local disk.
type SynthesizedAudio struct {
	Path string
	Size int
}

// SpeechSynthesizer turns question text into a staged MP3 file.
type SpeechSynthesizer struct {
	tts    tts.Client
	dir    string
	logger zerolog.Logger
	newID  func() string
}

func NewSpeechSynthesizer(client tts.Client, dir string, logger zerolog.Logger) *SpeechSynthesizer {
	return &SpeechSynthesizer{
		tts:    client,
		dir:    dir,
		logger: logger.With().Str("component", "speech").Logger(),
		newID:  uuid.NewString,
	}
}

// Synthesize stages the audio under a per-request name so concurrent calls
// never share a file.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, question string) (*SynthesizedAudio, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	audio, err := s.tts.Synthesize(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	path := filepath.Join(s.dir, "question-"+s.newID()+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("write question audio: %w", err)
	}

	s.logger.Info().Str("path", path).Int("bytes", len(audio)).Msg("saved question audio")
	return &SynthesizedAudio{Path: path, Size: len(audio)}, nil
}
