package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// GoogleClient implements the Client interface using Google Cloud Text-to-Speech.
type GoogleClient struct {
	client       *texttospeech.Client
	languageCode string
}

// GoogleConfig holds configuration for the Google client.
type GoogleConfig struct {
	CredentialsFile string // Service account JSON; empty uses Application Default Credentials
	LanguageCode    string // e.g., "en-US"
}

// NewGoogleClient creates a new Google Cloud Text-to-Speech client.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en-US"
	}
	return &GoogleClient{client: client, languageCode: lang}, nil
}

// Synthesize requests neutral-voice MP3 audio for text.
func (c *GoogleClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.SynthesizeSpeech(ctx, synthesisRequest(text, c.languageCode))
	if err != nil {
		return nil, fmt.Errorf("text-to-speech API error: %w", err)
	}
	return resp.GetAudioContent(), nil
}

// Close releases the underlying gRPC connection.
func (c *GoogleClient) Close() error {
	return c.client.Close()
}

func synthesisRequest(text, languageCode string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}
