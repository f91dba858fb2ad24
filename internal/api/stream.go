package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/store"
)

const (
	streamWriteWait    = 10 * time.Second
	streamRequestWait  = 30 * time.Second
	streamMaxFrameSize = 1 << 20
)

// handleStream runs one simulation per connection. The client sends a
// single request frame; the server answers with a progress frame per batch
// and a final result or error frame, then closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Printf("stream_upgrade_failed request_id=%s err=%v", middleware.GetReqID(r.Context()), err)
		return
	}
	defer conn.Close()

	requestID := middleware.GetReqID(r.Context())
	conn.SetReadLimit(streamMaxFrameSize)
	conn.SetReadDeadline(time.Now().Add(streamRequestWait))

	var req sim.Request
	if err := conn.ReadJSON(&req); err != nil {
		s.streamError(conn, NewError(ErrTypeInvalidJSON, "Invalid JSON in request frame").
			WithRequestID(requestID).
			WithCause(err).
			Build())
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Any inbound frame or a closed socket cancels the run.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	res, err := s.runner.Run(ctx, s.applyDefaults(req), sim.WithProgress(func(p sim.Progress) {
		s.streamWrite(conn, StreamMessage{Type: "progress", Progress: &p})
	}))
	if err != nil {
		_, errType := classify(err)
		s.streamError(conn, NewError(errType, err.Error()).WithRequestID(requestID).Build())
		return
	}

	msg := StreamMessage{Type: "result", Result: res}
	if s.db != nil {
		run := store.NewRun(res)
		if err := s.db.SaveRun(run); err != nil {
			s.streamError(conn, NewError(ErrTypeInternal, err.Error()).WithRequestID(requestID).Build())
			return
		}
		msg.RunID = run.ID
	}
	s.streamWrite(conn, msg)
	s.logger.Printf("stream_completed request_id=%s rounds=%d ratio=%.6f timed_out=%t",
		requestID, res.Totals.Rounds, res.Ratio, res.TimedOut)

	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

func (s *Server) streamWrite(conn *websocket.Conn, msg StreamMessage) {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Printf("stream_write_failed type=%s err=%v", msg.Type, err)
	}
}

func (s *Server) streamError(conn *websocket.Conn, e EngineError) {
	s.logger.Printf("stream_error type=%s request_id=%s message=%q", e.Type, e.RequestID, e.Message)
	s.streamWrite(conn, StreamMessage{Type: "error", Error: &e})
}
