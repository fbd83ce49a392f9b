package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Transcoder converts audio files to MP3.
type Transcoder interface {
	// ToMP3 writes an MP3 sibling of inputPath and returns its path.
	ToMP3(ctx context.Context, inputPath string) (string, error)
}

// MP3Path returns inputPath with its extension replaced by ".mp3".
func MP3Path(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".mp3"
}

// FFmpegTranscoder shells out to ffmpeg with the libmp3lame encoder.
type FFmpegTranscoder struct {
	binary     string
	sampleRate int
	logger     zerolog.Logger
}

func NewFFmpegTranscoder(binary string, sampleRate int, logger zerolog.Logger) *FFmpegTranscoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &FFmpegTranscoder{
		binary:     binary,
		sampleRate: sampleRate,
		logger:     logger.With().Str("component", "transcoder").Logger(),
	}
}

// ToMP3 transcodes inputPath. Files that already carry a .mp3 extension are
// returned as is since the output would overwrite the input.
func (t *FFmpegTranscoder) ToMP3(ctx context.Context, inputPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(inputPath), ".mp3") {
		return inputPath, nil
	}
	outputPath := MP3Path(inputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vn", "-acodec", "libmp3lame", "-ar", fmt.Sprintf("%d", t.sampleRate),
		outputPath,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.logger.Error().Err(err).Str("input", inputPath).Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("error converting audio")
		return "", fmt.Errorf("ffmpeg: %w", err)
	}

	t.logger.Info().Str("input", inputPath).Str("output", outputPath).Msg("converted to mp3")
	return outputPath, nil
}
