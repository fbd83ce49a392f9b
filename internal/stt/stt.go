package stt

import "context"

// RecognitionConfig describes the audio submitted for recognition.
type RecognitionConfig struct {
	Encoding        string // e.g., "mp3"
	SampleRateHertz int32  // e.g., 44100
	LanguageCode    string // e.g., "en-US"
}

// DefaultRecognitionConfig matches the MP3 files produced by the transcoder.
func DefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{
		Encoding:        "mp3",
		SampleRateHertz: 44100,
		LanguageCode:    "en-US",
	}
}

// Client defines the interface for speech-to-text providers.
type Client interface {
	// Recognize transcribes a complete recording and returns the best
	// hypothesis. An empty string means nothing was recognized.
	Recognize(ctx context.Context, audio []byte) (string, error)
}
