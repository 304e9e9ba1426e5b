package runtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/loqalabs/vox-relay/internal/pipeline"
	"github.com/loqalabs/vox-relay/internal/tts"
)

// maxUploadBytes caps audio uploads at 25 MiB, enough for several minutes of
// 16-bit 44.1 kHz stereo.
const maxUploadBytes = 25 << 20

type apiResponse struct {
	Success    bool     `json:"success"`
	Response   string   `json:"response"`
	AudioURL   string   `json:"audio_url"`
	AudioURLs  []string `json:"audio_urls"`
	Transcript string   `json:"transcript"`
	Message    string   `json:"message,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func fromPipelineResult(res pipeline.Result) apiResponse {
	out := apiResponse{
		Success:    res.Success,
		Response:   res.Response,
		AudioURL:   res.Audio.URL(),
		AudioURLs:  res.Audio.Segments(),
		Transcript: res.Transcript,
		Message:    res.Message,
		Error:      res.Err,
	}
	if out.AudioURLs == nil {
		out.AudioURLs = []string{}
	}
	return out
}

func fromSynthResult(res tts.Result) apiResponse {
	out := apiResponse{
		Success:   res.Success,
		AudioURL:  res.Audio.URL(),
		AudioURLs: res.Audio.Segments(),
		Message:   res.Message,
		Error:     res.Err,
	}
	if out.AudioURLs == nil {
		out.AudioURLs = []string{}
	}
	return out
}

func (r *Runtime) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/tts", r.handleSynthesize)
	mux.HandleFunc("POST /v1/llm/query", r.handleQuery)
	mux.HandleFunc("POST /v1/agent/chat/{session_id}", r.handleChat)
	mux.HandleFunc("GET /v1/agent/stream/{session_id}", r.handleStream)
}

func (r *Runtime) handleSynthesize(w http.ResponseWriter, req *http.Request) {
	var body tts.Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.VoiceID == "" {
		body.VoiceID = r.cfg.TTS.Voice
	}
	if body.Style == "" {
		body.Style = r.cfg.TTS.Style
	}

	res, err := r.synth.SynthesizeChunked(req.Context(), body)
	if err != nil {
		r.logger.Error("synthesis failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}
	writeJSON(w, http.StatusOK, fromSynthResult(res))
}

func (r *Runtime) handleQuery(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res := r.orch.Query(req.Context(), body.Text, nil)
	writeJSON(w, http.StatusOK, fromPipelineResult(res))
}

func (r *Runtime) handleChat(w http.ResponseWriter, req *http.Request) {
	sessionID := req.PathValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	audio, err := io.ReadAll(io.LimitReader(req.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio upload")
		return
	}
	if len(audio) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "audio upload too large")
		return
	}

	res := r.handler.Turn(req.Context(), sessionID, audio)
	writeJSON(w, http.StatusOK, fromPipelineResult(res))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{
		Success:   false,
		AudioURLs: []string{},
		Error:     msg,
	})
}
