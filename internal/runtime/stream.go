package runtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
}

const streamTurnTimeout = 60 * time.Second

// handleStream runs conversation turns over a websocket. Binary messages
// accumulate audio for the current utterance; the text message "done" closes
// the utterance, runs a turn, and sends the result back as JSON.
func (r *Runtime) handleStream(w http.ResponseWriter, req *http.Request) {
	sessionID := req.PathValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	logger := r.logger.With(slog.String("session_id", sessionID))
	logger.Info("stream opened")

	var audio []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("stream read failed", slog.String("error", err.Error()))
			}
			logger.Info("stream closed")
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(audio)+len(data) > maxUploadBytes {
				_ = conn.WriteJSON(apiResponse{
					Success:   false,
					AudioURLs: []string{},
					Error:     "utterance too large",
				})
				audio = nil
				continue
			}
			audio = append(audio, data...)
		case websocket.TextMessage:
			if strings.TrimSpace(string(data)) != "done" {
				continue
			}
			if len(audio) == 0 {
				_ = conn.WriteJSON(apiResponse{
					Success:   false,
					AudioURLs: []string{},
					Error:     "no audio received",
				})
				continue
			}

			ctx, cancel := context.WithTimeout(req.Context(), streamTurnTimeout)
			res := r.handler.Turn(ctx, sessionID, audio)
			cancel()
			audio = nil

			if err := conn.WriteJSON(fromPipelineResult(res)); err != nil {
				logger.Warn("stream write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
