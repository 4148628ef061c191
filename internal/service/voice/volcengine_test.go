package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type volcCapture struct {
	header  http.Header
	request volcRequest
}

// fakeVolcServer answers a single request with frames and reports what it saw.
type fakeVolcServer struct {
	t      *testing.T
	frames func(req volcRequest) []frame
	hold   bool
	seen   chan volcCapture
}

func (s *fakeVolcServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Clone()
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	f, err := parseFrame(data)
	if !assert.NoError(s.t, err) {
		return
	}
	assert.Equal(s.t, frameFullClientRequest, f.kind)
	var req volcRequest
	assert.NoError(s.t, json.Unmarshal(f.payload, &req))
	s.seen <- volcCapture{header: header, request: req}

	if s.hold {
		// Block until the client goes away.
		_, _, _ = conn.ReadMessage()
		return
	}
	for _, out := range s.frames(req) {
		if err := conn.WriteMessage(websocket.BinaryMessage, out.marshal()); err != nil {
			return
		}
	}
}

func newVolcTest(t *testing.T, srv *fakeVolcServer) *VolcengineSynthesizer {
	t.Helper()
	srv.t = t
	srv.seen = make(chan volcCapture, 1)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	synth, err := NewVolcengineSynthesizer(VolcengineConfig{
		AppID:       "app",
		AccessToken: "token",
		Endpoint:    "ws" + strings.TrimPrefix(ts.URL, "http"),
	})
	require.NoError(t, err)
	return synth
}

func TestVolcengineSynthesizeCollectsAudio(t *testing.T) {
	srv := &fakeVolcServer{frames: func(volcRequest) []frame {
		chunk := base64.StdEncoding.EncodeToString([]byte("-json"))
		return []frame{
			{kind: frameAudioOnlyResponse, flags: flagPositiveSequence, sequence: 1, payload: []byte("raw")},
			{kind: frameFullServerResponse, serialization: serializationJSON, payload: []byte(`{"reqid":"r-42","code":3000,"data":"` + chunk + `"}`)},
			{kind: frameFullServerResponse, flags: flagWithEvent, event: eventSessionFinished, sessionID: "s", payload: []byte(`{}`)},
		}
	}}
	synth := newVolcTest(t, srv)

	audio, err := synth.Synthesize(context.Background(), Request{Text: "hello there", Language: "en-US", SpeakingRate: 0.9})
	require.NoError(t, err)

	assert.Equal(t, "raw-json", string(audio.Content))
	assert.Equal(t, "mp3", audio.Format)
	assert.Equal(t, "r-42", audio.RequestID)

	seen := <-srv.seen
	assert.Equal(t, "app", seen.header.Get("X-Api-App-Key"))
	assert.Equal(t, "token", seen.header.Get("X-Api-Access-Key"))
	assert.Equal(t, volcSeedResource, seen.header.Get("X-Api-Resource-Id"))
	assert.NotEmpty(t, seen.header.Get("X-Api-Connect-Id"))

	params := seen.request.ReqParams
	assert.Equal(t, "hello there", params.Text)
	assert.Equal(t, volcDefaultSpeaker, params.Speaker)
	assert.Equal(t, "en", params.Language)
	assert.Equal(t, "mp3", params.AudioParams.Format)
	assert.Equal(t, 24000, params.AudioParams.SampleRate)
	assert.InDelta(t, 0.9, params.AudioParams.SpeedRatio, 1e-9)
}

func TestVolcengineSynthesizeStopsOnLastPacket(t *testing.T) {
	srv := &fakeVolcServer{frames: func(volcRequest) []frame {
		return []frame{
			{kind: frameAudioOnlyResponse, flags: flagNegativeSequence, sequence: -2, payload: []byte("tail")},
			{kind: frameFullServerResponse, flags: flagLastNoSequence, payload: []byte(`{"code":0}`)},
		}
	}}

	audio, err := newVolcTest(t, srv).Synthesize(context.Background(), Request{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "tail", string(audio.Content))
}

func TestVolcengineSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		frames  []frame
		wantErr string
	}{
		{
			name:    "error frame",
			frames:  []frame{{kind: frameError, errorCode: 45000000, payload: []byte("quota exceeded")}},
			wantErr: "volcengine error 45000000",
		},
		{
			name:    "api error code",
			frames:  []frame{{kind: frameFullServerResponse, payload: []byte(`{"code":4001,"message":"bad speaker"}`)}},
			wantErr: "bad speaker",
		},
		{
			name:    "session failed",
			frames:  []frame{{kind: frameFullServerResponse, flags: flagWithEvent, event: eventSessionFailed, sessionID: "s", payload: []byte(`{"error":"x"}`)}},
			wantErr: "session failed",
		},
		{
			name:    "no audio",
			frames:  []frame{{kind: frameFullServerResponse, flags: flagWithEvent, event: eventSessionFinished, sessionID: "s", payload: []byte(`{}`)}},
			wantErr: "no audio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &fakeVolcServer{frames: func(volcRequest) []frame { return tt.frames }}
			_, err := newVolcTest(t, srv).Synthesize(context.Background(), Request{Text: "hi"})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestVolcengineSynthesizeHonoursContext(t *testing.T) {
	synth := newVolcTest(t, &fakeVolcServer{hold: true})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := synth.Synthesize(ctx, Request{Text: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVolcengineResourceSelection(t *testing.T) {
	synth, err := NewVolcengineSynthesizer(VolcengineConfig{AppID: "a", AccessToken: "t"})
	require.NoError(t, err)

	assert.Equal(t, volcSeedResource, synth.resourceFor("zh_female_vv_uranus_bigtts"))
	assert.Equal(t, volcDefaultResource, synth.resourceFor("zh_male_organizer"))

	synth.cfg.ResourceID = "custom"
	assert.Equal(t, "custom", synth.resourceFor("zh_female_vv_uranus_bigtts"))
}

func TestVolcSpeakerAndLanguage(t *testing.T) {
	assert.Equal(t, volcDefaultSpeaker, volcSpeaker(""))
	assert.Equal(t, volcDefaultSpeaker, volcSpeaker("en-US-Neural2-F"))
	assert.Equal(t, "zh_male_organizer", volcSpeaker("zh_male_organizer"))
	assert.Equal(t, "en", volcLanguage("en-US"))
	assert.Equal(t, "zh", volcLanguage("zh_CN"))
	assert.Equal(t, "", volcLanguage(""))
}

func TestNewVolcengineSynthesizerRequiresCredentials(t *testing.T) {
	_, err := NewVolcengineSynthesizer(VolcengineConfig{AppID: "a"})
	assert.Error(t, err)
}
