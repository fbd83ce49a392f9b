package interview

import (
	"context"
	"os"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(context.Context, string) ([]byte, error) {
	return f.audio, f.err
}

type fakeSTT struct {
	text string
	err  error
	got  []byte
}

func (f *fakeSTT) Recognize(_ context.Context, audio []byte) (string, error) {
	f.got = audio
	return f.text, f.err
}

// fakeTranscoder writes content to the .mp3 sibling unless err or skipWrite is set.
type fakeTranscoder struct {
	content   []byte
	err       error
	skipWrite bool
}

func (f *fakeTranscoder) ToMP3(_ context.Context, inputPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	out := inputPath + ".mp3"
	if f.skipWrite {
		return out, nil
	}
	return out, os.WriteFile(out, f.content, 0o644)
}
