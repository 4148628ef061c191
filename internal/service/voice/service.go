// Package voice turns companion text into speech through a pluggable
// synthesizer.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTextRequired is returned for empty input.
	ErrTextRequired = errors.New("text is required")
	// ErrTextTooLong is returned when input exceeds MaxTextLength runes.
	ErrTextTooLong = errors.New("text is too long")
	// ErrUnavailable is returned when no synthesizer is configured.
	ErrUnavailable = errors.New("text-to-speech is not configured")
)

// MaxTextLength bounds a single synthesis request, in runes.
const MaxTextLength = 5000

// Request describes one synthesis.
type Request struct {
	Text         string
	Voice        string
	Language     string
	SpeakingRate float64
}

// Audio is synthesized speech.
type Audio struct {
	Content   []byte
	Format    string
	RequestID string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Audio, error)
	Name() string
}

// Defaults fill the fields a Request leaves empty.
type Defaults struct {
	Voice        string
	Language     string
	SpeakingRate float64
	Timeout      time.Duration
}

// Service applies defaults and a timeout around a Synthesizer.
type Service struct {
	synth    Synthesizer
	defaults Defaults
	log      *logrus.Entry
}

// NewService wraps synth. A nil synth yields a service that always reports
// ErrUnavailable.
func NewService(synth Synthesizer, defaults Defaults) *Service {
	return &Service{
		synth:    synth,
		defaults: defaults,
		log:      logrus.WithField("component", "voice"),
	}
}

// Enabled reports whether a synthesizer is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.synth != nil
}

// Synthesize validates req, fills defaults and calls the synthesizer.
func (s *Service) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, ErrTextRequired
	}
	if utf8.RuneCountInString(req.Text) > MaxTextLength {
		return nil, ErrTextTooLong
	}
	if !s.Enabled() {
		return nil, ErrUnavailable
	}

	if req.Voice == "" {
		req.Voice = s.defaults.Voice
	}
	if req.Language == "" {
		req.Language = s.defaults.Language
	}
	if req.SpeakingRate <= 0 {
		req.SpeakingRate = s.defaults.SpeakingRate
	}

	if s.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaults.Timeout)
		defer cancel()
	}

	start := time.Now()
	audio, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s synthesis: %w", s.synth.Name(), err)
	}

	s.log.WithFields(logrus.Fields{
		"provider": s.synth.Name(),
		"chars":    utf8.RuneCountInString(req.Text),
		"bytes":    len(audio.Content),
		"duration": time.Since(start).String(),
	}).Info("speech synthesized")
	return audio, nil
}
