package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewElevenLabsClient_DefaultValues(t *testing.T) {
	// -1 signals "use default" since 0.0 is a valid value
	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:     "test-key",
		Stability:  -1,
		Similarity: -1,
	})

	if client.voiceID != "21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("voiceID = %q, want %q", client.voiceID, "21m00Tcm4TlvDq8ikWAM")
	}
	if client.modelID != "eleven_flash_v2_5" {
		t.Errorf("modelID = %q, want %q", client.modelID, "eleven_flash_v2_5")
	}
	if client.stability != 0.5 {
		t.Errorf("stability = %f, want %f", client.stability, 0.5)
	}
	if client.similarity != 0.75 {
		t.Errorf("similarity = %f, want %f", client.similarity, 0.75)
	}
	if client.httpClient == nil {
		t.Error("httpClient should default to a non-nil client")
	}
}

func TestNewElevenLabsClient_ZeroValuesAreValid(t *testing.T) {
	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:     "test-key",
		Stability:  0,
		Similarity: 0,
	})

	if client.stability != 0 {
		t.Errorf("stability = %f, want 0", client.stability)
	}
	if client.similarity != 0 {
		t.Errorf("similarity = %f, want 0", client.similarity)
	}
}

func TestNewElevenLabsClient_CustomVoiceAndModel(t *testing.T) {
	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:  "test-key",
		VoiceID: "custom-voice-id",
		ModelID: "custom-model-id",
	})

	if client.voiceID != "custom-voice-id" {
		t.Errorf("voiceID = %q, want %q", client.voiceID, "custom-voice-id")
	}
	if client.modelID != "custom-model-id" {
		t.Errorf("modelID = %q, want %q", client.modelID, "custom-model-id")
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotFormat, gotKey string
	var gotBody ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotFormat = req.URL.Query().Get("output_format")
		gotKey = req.Header.Get("xi-api-key")
		_ = json.NewDecoder(req.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mp3-bytes"))
	}))
	defer srv.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{APIKey: "test-key", VoiceID: "voice-1", Stability: -1, Similarity: -1})
	client.baseURL = srv.URL

	audio, err := client.Synthesize(context.Background(), "What is a variable?")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "ID3-mp3-bytes" {
		t.Errorf("audio = %q, want %q", audio, "ID3-mp3-bytes")
	}
	if gotPath != "/voice-1" {
		t.Errorf("path = %q, want %q", gotPath, "/voice-1")
	}
	if gotFormat != "mp3_44100_128" {
		t.Errorf("output_format = %q, want mp3_44100_128", gotFormat)
	}
	if gotKey != "test-key" {
		t.Errorf("xi-api-key = %q, want %q", gotKey, "test-key")
	}
	if gotBody.Text != "What is a variable?" {
		t.Errorf("text = %q, want %q", gotBody.Text, "What is a variable?")
	}
}

func TestElevenLabsSynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{APIKey: "test-key"})
	client.baseURL = srv.URL

	_, err := client.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error = %q, should include provider message", err.Error())
	}
}

func TestSynthesisRequest(t *testing.T) {
	req := synthesisRequest("Explain inheritance.", "en-US")

	if req.GetInput().GetText() != "Explain inheritance." {
		t.Errorf("input text = %q", req.GetInput().GetText())
	}
	if req.GetVoice().GetLanguageCode() != "en-US" {
		t.Errorf("language = %q, want en-US", req.GetVoice().GetLanguageCode())
	}
	if req.GetVoice().GetSsmlGender().String() != "NEUTRAL" {
		t.Errorf("gender = %s, want NEUTRAL", req.GetVoice().GetSsmlGender())
	}
	if req.GetAudioConfig().GetAudioEncoding().String() != "MP3" {
		t.Errorf("encoding = %s, want MP3", req.GetAudioConfig().GetAudioEncoding())
	}
}

func TestClientInterface(t *testing.T) {
	var _ Client = (*ElevenLabsClient)(nil)
	var _ Client = (*GoogleClient)(nil)
	var _ Client = (*CachedClient)(nil)
}
