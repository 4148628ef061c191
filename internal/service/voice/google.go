package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"
	googleScope    = "https://www.googleapis.com/auth/cloud-platform"
)

// GoogleSynthesizer calls the Google Cloud Text-to-Speech REST API.
type GoogleSynthesizer struct {
	client   *http.Client
	endpoint string
}

// NewGoogleSynthesizer authenticates with a service account JSON key.
func NewGoogleSynthesizer(ctx context.Context, credentialsJSON string) (*GoogleSynthesizer, error) {
	if credentialsJSON == "" {
		return nil, errors.New("google credentials are empty")
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), googleScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return NewGoogleSynthesizerWithClient(oauth2.NewClient(context.Background(), creds.TokenSource), googleEndpoint), nil
}

// NewGoogleSynthesizerWithClient uses client as is. client must add
// authorization itself.
func NewGoogleSynthesizerWithClient(client *http.Client, endpoint string) *GoogleSynthesizer {
	return &GoogleSynthesizer{client: client, endpoint: endpoint}
}

func (g *GoogleSynthesizer) Name() string { return "google" }

type googleRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
		SSMLGender   string `json:"ssmlGender,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate,omitempty"`
		Pitch         float64 `json:"pitch"`
	} `json:"audioConfig"`
}

type googleResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize implements Synthesizer.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	var body googleRequest
	body.Input.Text = req.Text
	body.Voice.LanguageCode = req.Language
	if body.Voice.LanguageCode == "" {
		body.Voice.LanguageCode = "en-US"
	}
	body.Voice.Name = req.Voice
	body.Voice.SSMLGender = "FEMALE"
	body.AudioConfig.AudioEncoding = "MP3"
	body.AudioConfig.SpeakingRate = req.SpeakingRate

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call google tts: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read google tts response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google tts returned %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	var out googleResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode google tts response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode google audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("google tts returned no audio")
	}

	return &Audio{Content: audio, Format: "mp3"}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
