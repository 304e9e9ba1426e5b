package protocol

import "time"

// AudioFrame carries PCM audio streamed from edge devices. Frames for one
// session share a SessionID; the frame with Final set closes the utterance.
type AudioFrame struct {
	SessionID  string `json:"session_id"`
	Sequence   int    `json:"sequence"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	PCM        []byte `json:"pcm"`
	Final      bool   `json:"final"`
}

// TurnResult is the outcome of one conversation turn, published back to the
// session's result subject once the utterance has been processed end to end.
type TurnResult struct {
	SessionID  string    `json:"session_id"`
	Success    bool      `json:"success"`
	Transcript string    `json:"transcript"`
	Response   string    `json:"response"`
	AudioURL   string    `json:"audio_url"`
	AudioURLs  []string  `json:"audio_urls"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	SubjectAudioFramePrefix = "audio.frame"
	SubjectTurnResultPrefix = "turn.result"
)

// TurnResultSubject returns the per-session subject turn results are published on.
func TurnResultSubject(sessionID string) string {
	return SubjectTurnResultPrefix + "." + sessionID
}
