// Package speech turns recorded audio into text through the OpenAI-compatible
// transcription endpoint. The conversation pipeline itself is text-in,
// text-out; this sits in front of it for voice input.
package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kelseyhightower/envconfig"
	openaisdk "github.com/openai/openai-go"
)

type Config struct {
	Model    string `envconfig:"MODEL" split_words:"true" default:"whisper-1"`
	Language string `envconfig:"LANGUAGE" split_words:"true" default:"ko"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("speech", &cfg); err != nil {
		return Config{}, fmt.Errorf("speech config: %w", err)
	}
	return cfg, nil
}

// Transcriber wraps the audio transcription endpoint.
type Transcriber struct {
	client   *openaisdk.Client
	model    string
	language string
}

// New builds a transcriber on top of an already configured SDK client. A nil
// client yields a nil transcriber, which callers treat as voice input being
// unavailable.
func New(client *openaisdk.Client, cfg Config) *Transcriber {
	if client == nil {
		return nil
	}
	return &Transcriber{
		client:   client,
		model:    strings.TrimSpace(cfg.Model),
		language: strings.TrimSpace(cfg.Language),
	}
}

// Transcribe sends one audio clip and returns the recognized text. The
// filename is only used to hint the container format to the endpoint.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if t == nil || t.client == nil {
		return "", fmt.Errorf("speech: transcriber not configured")
	}
	params := openaisdk.AudioTranscriptionNewParams{
		File:  openaisdk.File(audio, filename, "application/octet-stream"),
		Model: openaisdk.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openaisdk.String(t.language)
	}
	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("speech: transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
