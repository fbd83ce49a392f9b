package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lukasbauer/interviewer/internal/eventlog"
	"github.com/lukasbauer/interviewer/internal/interview"
)

// handleStartInterview generates a question set. ?count= overrides the
// configured count and is clamped to 1..10.
func (r *Router) handleStartInterview(w http.ResponseWriter, req *http.Request) {
	n := questionCount(req.URL.Query().Get("count"), r.cfg.QuestionCount)
	rid := requestID(req.Context())

	ctx, cancel := r.upstreamContext(req)
	defer cancel()

	questions, err := r.questions.Generate(ctx, n)
	if err != nil || len(questions) == 0 {
		if err == nil {
			err = interview.ErrGeneration
		}
		r.logger.Error().Err(err).Str("request_id", rid).Msg("interview: failed to generate questions")
		captureError(req, err, "failed to generate questions")
		r.eventLog.LogAsync(rid, eventlog.EventQuestionGenerationFailed, map[string]any{
			"count": n,
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Failed to generate questions")
		return
	}

	r.eventLog.LogAsync(rid, eventlog.EventQuestionSetGenerated, map[string]any{
		"requested": n,
		"count":     len(questions),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
	})
}

func questionCount(raw string, def int) int {
	n := def
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}
	if n < 1 {
		n = 1
	}
	if n > interview.MaxQuestionCount {
		n = interview.MaxQuestionCount
	}
	return n
}

// handleGetQuestionAudio synthesizes a question and streams the staged MP3.
func (r *Router) handleGetQuestionAudio(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rid := requestID(req.Context())

	ctx, cancel := r.upstreamContext(req)
	defer cancel()

	audio, err := r.speech.Synthesize(ctx, body.Question)
	if err != nil {
		if errors.Is(err, interview.ErrValidation) {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}
		r.logger.Error().Err(err).Str("request_id", rid).Msg("interview: failed to synthesize question audio")
		captureError(req, err, "failed to synthesize question audio")
		r.eventLog.LogAsync(rid, eventlog.EventQuestionAudioFailed, map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to synthesize question audio")
		return
	}

	f, err := os.Open(audio.Path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", audio.Path).Msg("interview: staged audio missing")
		captureError(req, err, "staged audio missing")
		writeError(w, http.StatusInternalServerError, "Failed to synthesize question audio")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		captureError(req, err, "stat staged audio")
		writeError(w, http.StatusInternalServerError, "Failed to synthesize question audio")
		return
	}

	r.eventLog.LogAsync(rid, eventlog.EventQuestionAudioSynthesized, map[string]any{
		"bytes": audio.Size,
		"file":  filepath.Base(audio.Path),
	})

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, req, filepath.Base(audio.Path), info.ModTime(), f)
}

// handleSubmitAudioAnswer transcribes a multipart "file" upload.
func (r *Router) handleSubmitAudioAnswer(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	rid := requestID(req.Context())

	file, header, err := req.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		// A part named "file" with an empty filename is parsed as a plain value.
		if req.MultipartForm != nil && len(req.MultipartForm.Value["file"]) > 0 {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	staged, err := r.transcriber.Stage(header.Filename, file)
	if err != nil {
		if errors.Is(err, interview.ErrValidation) {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		r.failTranscription(w, req, err)
		return
	}

	ctx, cancel := r.upstreamContext(req)
	defer cancel()

	transcription, err := r.transcriber.Transcribe(ctx, staged)
	switch {
	case errors.Is(err, interview.ErrConversion):
		r.logger.Error().Err(err).Str("request_id", rid).Msg("interview: audio conversion failed")
		captureError(req, err, "audio conversion failed")
		r.eventLog.LogAsync(rid, eventlog.EventAnswerConversionFailed, map[string]any{
			"file":  filepath.Base(staged),
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Failed to convert audio file")
		return
	case errors.Is(err, interview.ErrEmptyTranscription):
		r.eventLog.LogAsync(rid, eventlog.EventAnswerTranscriptionEmpty, map[string]any{
			"file": filepath.Base(staged),
		})
		writeError(w, http.StatusBadRequest, "Failed to transcribe audio (empty transcription)")
		return
	case err != nil:
		r.failTranscription(w, req, err)
		return
	}

	r.eventLog.LogAsync(rid, eventlog.EventAnswerTranscribed, map[string]any{
		"file":   filepath.Base(staged),
		"length": len(transcription),
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"transcription": transcription,
	})
}

func (r *Router) failTranscription(w http.ResponseWriter, req *http.Request, err error) {
	rid := requestID(req.Context())
	r.logger.Error().Err(err).Str("request_id", rid).Msg("interview: failed to transcribe audio")
	captureError(req, err, "failed to transcribe audio")
	r.eventLog.LogAsync(rid, eventlog.EventAnswerTranscriptionFailed, map[string]any{"error": err.Error()})
	writeError(w, http.StatusInternalServerError, "Failed to transcribe audio: "+err.Error())
}

// handleEvaluateAnswer scores a question/answer pair.
func (r *Router) handleEvaluateAnswer(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Question) == "" || strings.TrimSpace(body.Answer) == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}
	rid := requestID(req.Context())

	ctx, cancel := r.upstreamContext(req)
	defer cancel()

	evaluation, err := r.evaluator.Evaluate(ctx, body.Question, body.Answer)
	if err != nil {
		r.logger.Error().Err(err).Str("request_id", rid).Msg("interview: failed to evaluate answer")
		captureError(req, err, "failed to evaluate answer")
		r.eventLog.LogAsync(rid, eventlog.EventAnswerEvaluationFailed, map[string]any{"error": err.Error()})

		if errors.Is(err, interview.ErrEmptyResponse) {
			writeError(w, http.StatusInternalServerError, "Empty response from evaluation service")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to evaluate answer")
		return
	}

	r.eventLog.LogAsync(rid, eventlog.EventAnswerEvaluated, map[string]any{
		"overall_score": evaluation.OverallScore,
		"relevance":     evaluation.Relevance,
		"correctness":   evaluation.Correctness,
		"clarity":       evaluation.Clarity,
		"depth":         evaluation.Depth,
	})
	writeJSON(w, http.StatusOK, evaluation)
}
