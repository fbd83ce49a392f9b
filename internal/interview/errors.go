package interview

import "errors"

var (
	// ErrGeneration means the model returned no usable question set.
	ErrGeneration = errors.New("question generation failed")
	// ErrConversion means the uploaded audio could not be transcoded to MP3.
	ErrConversion = errors.New("audio conversion failed")
	// ErrEmptyTranscription means the recognizer returned no usable text.
	ErrEmptyTranscription = errors.New("empty transcription")
	// ErrEmptyResponse means the model answered with blank text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrUpstream wraps network or service errors from an external API.
	ErrUpstream = errors.New("upstream call failed")
	// ErrValidation means the client request was malformed.
	ErrValidation = errors.New("invalid request")
)
