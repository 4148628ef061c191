package chat

import "github.com/zhouzirui/zenora/backend/internal/model/mood"

// Request is the body accepted by the chat endpoint.
type Request struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
	Context []Turn `json:"context,omitempty"`
}

// Reply is the successful chat endpoint payload.
type Reply struct {
	Response        string        `json:"response"`
	EmotionAnalysis mood.Analysis `json:"emotionAnalysis"`
	IsCrisis        bool          `json:"isCrisis"`
}

// ErrorReply is returned with non-2xx statuses. Response is always safe to
// show to the user.
type ErrorReply struct {
	Error    string `json:"error"`
	Response string `json:"response"`
	IsCrisis bool   `json:"isCrisis,omitempty"`
}
