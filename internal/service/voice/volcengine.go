package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	volcEndpoint        = "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"
	volcDefaultResource = "volc.service_type.10029"
	volcSeedResource    = "seed-tts-2.0"
	volcDefaultSpeaker  = "en_female_amy_jupiter_bigtts"
)

// VolcengineConfig holds the Volcengine speech credentials.
type VolcengineConfig struct {
	AppID       string
	AccessToken string
	// ResourceID overrides the resource picked from the speaker name.
	ResourceID string
	// Endpoint overrides the websocket URL.
	Endpoint string
}

// VolcengineSynthesizer streams speech over the Volcengine unidirectional
// websocket API and concatenates the audio chunks.
type VolcengineSynthesizer struct {
	cfg    VolcengineConfig
	dialer *websocket.Dialer
	log    *logrus.Entry
}

// NewVolcengineSynthesizer validates cfg.
func NewVolcengineSynthesizer(cfg VolcengineConfig) (*VolcengineSynthesizer, error) {
	if cfg.AppID == "" || cfg.AccessToken == "" {
		return nil, errors.New("volcengine app id and access token are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = volcEndpoint
	}
	return &VolcengineSynthesizer{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    logrus.WithField("component", "voice.volcengine"),
	}, nil
}

func (v *VolcengineSynthesizer) Name() string { return "volcengine" }

type volcRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string          `json:"speaker"`
		Text        string          `json:"text"`
		Language    string          `json:"language,omitempty"`
		AudioParams volcAudioParams `json:"audio_params"`
	} `json:"req_params"`
}

type volcAudioParams struct {
	Format     string  `json:"format"`
	SampleRate int     `json:"sample_rate"`
	SpeedRatio float64 `json:"speed_ratio,omitempty"`
}

type volcServerMessage struct {
	ReqID   string `json:"reqid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Synthesize implements Synthesizer.
func (v *VolcengineSynthesizer) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	speaker := volcSpeaker(req.Voice)
	connectID := uuid.NewString()

	header := http.Header{}
	header.Set("X-Api-App-Key", v.cfg.AppID)
	header.Set("X-Api-Access-Key", v.cfg.AccessToken)
	header.Set("X-Api-Resource-Id", v.resourceFor(speaker))
	header.Set("X-Api-Connect-Id", connectID)

	conn, _, err := v.dialer.DialContext(ctx, v.cfg.Endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("connect to volcengine: %w", err)
	}
	defer conn.Close()

	// Unblocks ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var body volcRequest
	body.User.UID = connectID
	body.ReqParams.Speaker = speaker
	body.ReqParams.Text = req.Text
	body.ReqParams.Language = volcLanguage(req.Language)
	body.ReqParams.AudioParams = volcAudioParams{Format: "mp3", SampleRate: 24000}
	if req.SpeakingRate > 0 && req.SpeakingRate != 1 {
		body.ReqParams.AudioParams.SpeedRatio = req.SpeakingRate
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	request := frame{
		kind:          frameFullClientRequest,
		flags:         flagNoSequence,
		serialization: serializationJSON,
		compression:   compressionNone,
		payload:       payload,
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, request.marshal()); err != nil {
		return nil, fmt.Errorf("send volcengine request: %w", err)
	}

	var (
		audio bytes.Buffer
		reqID = connectID
	)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read volcengine response: %w", err)
		}

		f, err := parseFrame(data)
		if err != nil {
			return nil, fmt.Errorf("decode volcengine frame: %w", err)
		}

		switch f.kind {
		case frameError:
			return nil, fmt.Errorf("volcengine error %d: %s", f.errorCode, truncate(string(f.payload), 256))

		case frameAudioOnlyResponse:
			audio.Write(f.payload)
			if f.last() {
				return &Audio{Content: audio.Bytes(), Format: "mp3", RequestID: reqID}, nil
			}

		case frameFullServerResponse:
			if f.hasEvent() && (f.event == eventSessionFailed || f.event == eventConnectionFailed) {
				return nil, fmt.Errorf("volcengine session failed: %s", truncate(string(f.payload), 256))
			}
			if len(f.payload) > 0 {
				var msg volcServerMessage
				if err := json.Unmarshal(f.payload, &msg); err != nil {
					v.log.WithError(err).Debug("ignoring non-json server payload")
				} else {
					// 3000 is the success code of the v1 protocol.
					if msg.Code != 0 && msg.Code != 3000 {
						return nil, fmt.Errorf("volcengine api error %d: %s", msg.Code, msg.Message)
					}
					if msg.ReqID != "" {
						reqID = msg.ReqID
					}
					if msg.Data != "" {
						chunk, err := base64.StdEncoding.DecodeString(msg.Data)
						if err != nil {
							return nil, fmt.Errorf("decode volcengine audio chunk: %w", err)
						}
						audio.Write(chunk)
					}
				}
			}

			if (f.hasEvent() && f.event == eventSessionFinished) || f.last() {
				if audio.Len() == 0 {
					return nil, errors.New("volcengine returned no audio")
				}
				return &Audio{Content: audio.Bytes(), Format: "mp3", RequestID: reqID}, nil
			}

		default:
			v.log.WithField("type", f.kind).Debug("ignoring unexpected frame")
		}
	}
}

func (v *VolcengineSynthesizer) resourceFor(speaker string) string {
	if v.cfg.ResourceID != "" {
		return v.cfg.ResourceID
	}
	lower := strings.ToLower(speaker)
	for _, hint := range []string{"bigtts", "seed", "jupiter", "uranus", "venus", "mars"} {
		if strings.Contains(lower, hint) {
			return volcSeedResource
		}
	}
	return volcDefaultResource
}

// volcSpeaker maps Google-style voice names onto the default speaker.
func volcSpeaker(voice string) string {
	voice = strings.TrimSpace(voice)
	if voice == "" || strings.Contains(voice, "Neural") || strings.Contains(voice, "Wavenet") {
		return volcDefaultSpeaker
	}
	return voice
}

func volcLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
