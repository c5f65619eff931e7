// Package speech synthesizes vocabulary audio with Google Cloud Text-to-Speech.
package speech

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

// Synthesizer turns text into MP3 audio with one configured voice
type Synthesizer struct {
	client       *texttospeech.Client
	languageCode string
	voiceName    string
}

// New creates a synthesizer. Credentials are found through GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, languageCode, voiceName string) (*Synthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return &Synthesizer{
		client:       client,
		languageCode: languageCode,
		voiceName:    voiceName,
	}, nil
}

// Synthesize returns MP3 audio of text
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.SynthesizeSpeech(ctx, BuildRequest(text, s.languageCode, s.voiceName))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return resp.AudioContent, nil
}

// Close releases the client connection
func (s *Synthesizer) Close() error {
	return s.client.Close()
}

// BuildRequest builds an MP3 synthesis request; an empty voiceName lets the API pick a voice
func BuildRequest(text, languageCode, voiceName string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}
