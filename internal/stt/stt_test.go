package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/gorilla/websocket"
)

func TestDefaultRecognitionConfig(t *testing.T) {
	cfg := DefaultRecognitionConfig()

	if cfg.Encoding != "mp3" {
		t.Errorf("Encoding = %q, want mp3", cfg.Encoding)
	}
	if cfg.SampleRateHertz != 44100 {
		t.Errorf("SampleRateHertz = %d, want 44100", cfg.SampleRateHertz)
	}
	if cfg.LanguageCode != "en-US" {
		t.Errorf("LanguageCode = %q, want en-US", cfg.LanguageCode)
	}
}

func TestRecognizeRequest(t *testing.T) {
	req := recognizeRequest(DefaultRecognitionConfig(), []byte("mp3-bytes"))

	if req.GetConfig().GetEncoding() != speechpb.RecognitionConfig_MP3 {
		t.Errorf("encoding = %s, want MP3", req.GetConfig().GetEncoding())
	}
	if req.GetConfig().GetSampleRateHertz() != 44100 {
		t.Errorf("sample rate = %d, want 44100", req.GetConfig().GetSampleRateHertz())
	}
	if req.GetConfig().GetLanguageCode() != "en-US" {
		t.Errorf("language = %q, want en-US", req.GetConfig().GetLanguageCode())
	}
	if string(req.GetAudio().GetContent()) != "mp3-bytes" {
		t.Errorf("content = %q, want mp3-bytes", req.GetAudio().GetContent())
	}
}

func TestBestTranscript(t *testing.T) {
	alt := func(s string) *speechpb.SpeechRecognitionAlternative {
		return &speechpb.SpeechRecognitionAlternative{Transcript: s}
	}

	tests := []struct {
		name string
		resp *speechpb.RecognizeResponse
		want string
	}{
		{"nil response", nil, ""},
		{"no results", &speechpb.RecognizeResponse{}, ""},
		{
			name: "result without alternatives",
			resp: &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{{}}},
			want: "",
		},
		{
			name: "first alternative of first result",
			resp: &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{alt("a variable stores data"), alt("a variable stores date")}},
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{alt("second result")}},
			}},
			want: "a variable stores data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bestTranscript(tt.resp); got != tt.want {
				t.Errorf("bestTranscript() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeepgramListenURL(t *testing.T) {
	t.Run("containerized audio omits encoding", func(t *testing.T) {
		c := NewDeepgramClient(DeepgramConfig{APIKey: "k", Recognition: DefaultRecognitionConfig()})
		u, err := url.Parse(c.listenURL())
		if err != nil {
			t.Fatalf("parse url: %v", err)
		}
		q := u.Query()
		if q.Get("model") != "nova-2" {
			t.Errorf("model = %q, want nova-2", q.Get("model"))
		}
		if q.Get("language") != "en-US" {
			t.Errorf("language = %q, want en-US", q.Get("language"))
		}
		if q.Has("encoding") || q.Has("sample_rate") {
			t.Errorf("mp3 should not set encoding/sample_rate: %s", u.RawQuery)
		}
	})

	t.Run("raw audio sets encoding", func(t *testing.T) {
		c := NewDeepgramClient(DeepgramConfig{
			APIKey:      "k",
			Model:       "nova-3",
			Recognition: RecognitionConfig{Encoding: "linear16", SampleRateHertz: 16000, LanguageCode: "en-US"},
		})
		u, _ := url.Parse(c.listenURL())
		q := u.Query()
		if q.Get("encoding") != "linear16" || q.Get("sample_rate") != "16000" {
			t.Errorf("query = %s, want linear16 at 16000", u.RawQuery)
		}
		if q.Get("model") != "nova-3" {
			t.Errorf("model = %q, want nova-3", q.Get("model"))
		}
	})
}

// fakeDeepgram accepts audio until CloseStream and then replies with msgs.
func fakeDeepgram(t *testing.T, received *[]byte, msgs ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Token test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				*received = append(*received, data...)
				continue
			}
			if strings.Contains(string(data), "CloseStream") {
				break
			}
		}

		for _, m := range msgs {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(m))
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
}

func newTestDeepgram(srv *httptest.Server) *DeepgramClient {
	c := NewDeepgramClient(DeepgramConfig{APIKey: "test-key", Recognition: DefaultRecognitionConfig()})
	c.wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	c.chunkSize = 4
	return c
}

func TestDeepgramRecognize(t *testing.T) {
	var received []byte
	srv := fakeDeepgram(t, &received,
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"a vari"}]}}`,
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"A variable"}]}}`,
		`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"stores data."}]}}`,
		`{"type":"Metadata"}`,
	)
	defer srv.Close()

	got, err := newTestDeepgram(srv).Recognize(context.Background(), []byte("0123456789"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "A variable stores data." {
		t.Errorf("Recognize() = %q, want %q", got, "A variable stores data.")
	}
	if string(received) != "0123456789" {
		t.Errorf("server received %q, want all audio in order", received)
	}
}

func TestDeepgramRecognizeNothing(t *testing.T) {
	var received []byte
	srv := fakeDeepgram(t, &received, `{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":""}]}}`)
	defer srv.Close()

	got, err := newTestDeepgram(srv).Recognize(context.Background(), []byte("silence"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "" {
		t.Errorf("Recognize() = %q, want empty", got)
	}
}

func TestDeepgramRecognizeDialError(t *testing.T) {
	var received []byte
	srv := fakeDeepgram(t, &received)
	defer srv.Close()

	c := newTestDeepgram(srv)
	c.apiKey = "wrong"

	if _, err := c.Recognize(context.Background(), []byte("x")); err == nil {
		t.Error("expected error when handshake is rejected")
	}
}

func TestDeepgramRecognizeStalledServerHonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newTestDeepgram(srv)
	c.chunkSize = 1 << 20

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Recognize(ctx, make([]byte, 64<<20))
	if err == nil {
		t.Fatal("expected error when the server stops reading")
	}
	if !strings.Contains(err.Error(), "failed to send audio") {
		t.Errorf("error = %v, want send failure", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Recognize took %s after its deadline", elapsed)
	}
}

func TestClientInterface(t *testing.T) {
	var _ Client = (*GoogleClient)(nil)
	var _ Client = (*DeepgramClient)(nil)
}
