package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// GoogleClient implements the Client interface using Google Cloud Speech-to-Text.
type GoogleClient struct {
	speechClient *speech.Client
	config       RecognitionConfig
}

// GoogleConfig holds configuration for the Google client.
type GoogleConfig struct {
	CredentialsFile string // Service account JSON; empty uses Application Default Credentials
	Recognition     RecognitionConfig
}

// NewGoogleClient creates a new Google Cloud Speech client.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	speechClient, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleClient{speechClient: speechClient, config: cfg.Recognition}, nil
}

// Close cleans up the speech client connection.
func (c *GoogleClient) Close() error {
	return c.speechClient.Close()
}

// Recognize runs a synchronous recognition request.
func (c *GoogleClient) Recognize(ctx context.Context, audio []byte) (string, error) {
	resp, err := c.speechClient.Recognize(ctx, recognizeRequest(c.config, audio))
	if err != nil {
		return "", fmt.Errorf("speech-to-text API error: %w", err)
	}
	return bestTranscript(resp), nil
}

func recognizeRequest(cfg RecognitionConfig, audio []byte) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        googleEncoding(cfg.Encoding),
			SampleRateHertz: cfg.SampleRateHertz,
			LanguageCode:    cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

func googleEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(name) {
	case "mp3":
		return speechpb.RecognitionConfig_MP3
	case "linear16", "wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "ogg_opus", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "webm_opus":
		return speechpb.RecognitionConfig_WEBM_OPUS
	}
	return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
}

// bestTranscript takes the first alternative of the first result.
func bestTranscript(resp *speechpb.RecognizeResponse) string {
	results := resp.GetResults()
	if len(results) == 0 {
		return ""
	}
	alts := results[0].GetAlternatives()
	if len(alts) == 0 {
		return ""
	}
	return alts[0].GetTranscript()
}
