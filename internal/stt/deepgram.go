package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

const deepgramWSURL = "wss://api.deepgram.com/v1/listen"

// DeepgramClient implements the Client interface over Deepgram's live
// WebSocket API: the whole recording is streamed, then the stream is closed
// and the final segments are collected.
type DeepgramClient struct {
	apiKey    string
	model     string
	config    RecognitionConfig
	punctuate bool
	wsURL     string
	dialer    *websocket.Dialer
	chunkSize int
}

// DeepgramConfig holds configuration for the Deepgram client.
type DeepgramConfig struct {
	APIKey      string
	Model       string // e.g., "nova-2"
	Punctuate   bool
	Recognition RecognitionConfig
}

// deepgramResponse represents a Deepgram WebSocket response.
type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

// NewDeepgramClient creates a new Deepgram STT client.
func NewDeepgramClient(cfg DeepgramConfig) *DeepgramClient {
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramClient{
		apiKey:    cfg.APIKey,
		model:     model,
		config:    cfg.Recognition,
		punctuate: cfg.Punctuate,
		wsURL:     deepgramWSURL,
		dialer:    websocket.DefaultDialer,
		chunkSize: 8192,
	}
}

// containerized encodings carry their own headers, so Deepgram must not be
// told a raw encoding or sample rate.
func containerized(encoding string) bool {
	switch strings.ToLower(encoding) {
	case "", "mp3", "wav", "ogg_opus", "webm_opus", "flac":
		return true
	}
	return false
}

func (c *DeepgramClient) listenURL() string {
	q := url.Values{}
	q.Set("model", c.model)
	if c.config.LanguageCode != "" {
		q.Set("language", c.config.LanguageCode)
	}
	q.Set("punctuate", fmt.Sprintf("%t", c.punctuate))
	if !containerized(c.config.Encoding) {
		q.Set("encoding", strings.ToLower(c.config.Encoding))
		q.Set("sample_rate", fmt.Sprintf("%d", c.config.SampleRateHertz))
	}
	return c.wsURL + "?" + q.Encode()
}

type recognizeResult struct {
	text string
	err  error
}

// Recognize streams audio and joins the final transcript segments.
func (c *DeepgramClient) Recognize(ctx context.Context, audio []byte) (string, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Token "+c.apiKey)

	conn, _, err := c.dialer.DialContext(ctx, c.listenURL(), headers)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Deepgram: %w", err)
	}
	defer conn.Close()

	done := make(chan recognizeResult, 1)
	go func() {
		done <- readFinals(conn)
	}()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(dl)
	}
	for off := 0; off < len(audio); off += c.chunkSize {
		end := off + c.chunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[off:end]); err != nil {
			return "", fmt.Errorf("failed to send audio: %w", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "CloseStream"}`)); err != nil {
		return "", fmt.Errorf("failed to close stream: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.text, res.err
	}
}

// readFinals reads until Deepgram sends its closing metadata or closes the socket.
func readFinals(conn *websocket.Conn) recognizeResult {
	var parts []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return recognizeResult{text: strings.Join(parts, " ")}
			}
			return recognizeResult{err: fmt.Errorf("read error: %w", err)}
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}

		switch resp.Type {
		case "Metadata":
			return recognizeResult{text: strings.Join(parts, " ")}
		case "Results":
			if !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
				continue
			}
			if t := strings.TrimSpace(resp.Channel.Alternatives[0].Transcript); t != "" {
				parts = append(parts, t)
			}
		}
	}
}
