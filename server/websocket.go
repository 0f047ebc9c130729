package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/safal938/nurse-sim/interview"
)

var errNotStart = errors.New("first message is not a start signal")

// wsTransport writes events as JSON text frames.
type wsTransport struct {
	c *websocket.Conn
}

func (t wsTransport) Write(ctx context.Context, ev interview.Event) error {
	return wsjson.Write(ctx, t.c, ev)
}

func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	log := s.opts.Logger
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.opts.AllowedOrigins,
		InsecureSkipVerify: s.allowAnyOrigin(),
	})
	if err != nil {
		log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer c.CloseNow()

	ctx, cancel := context.WithCancel(s.opts.BaseContext)
	defer cancel()
	stop := context.AfterFunc(r.Context(), cancel)
	defer stop()

	start, err := s.readStart(ctx, c)
	if err != nil {
		log.Info("session not started", "remote", r.RemoteAddr, "error", err)
		c.Close(websocket.StatusNormalClosure, "expected start message")
		return
	}
	log.Info("session starting", "patient_id", start.PatientID, "gender", start.Gender)

	conn := interview.NewConn(wsTransport{c: c}, func(o *interview.ConnOptions) { o.Logger = log })
	defer conn.Close()

	// Inbound frames after the handshake are ignored; reading keeps control
	// frames flowing and detects the client going away.
	go func() {
		for {
			if _, _, err := c.Read(ctx); err != nil {
				conn.MarkDisconnected()
				return
			}
		}
	}()

	runner, err := s.factory.NewSession(ctx, start, conn)
	if err != nil {
		log.Error("session setup failed", "patient_id", start.PatientID, "error", err)
		c.Close(websocket.StatusInternalError, "session setup failed")
		return
	}
	if err := runner.Run(ctx); err != nil {
		log.Error("session failed", "patient_id", start.PatientID, "error", err)
	}

	conn.Close()
	c.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) readStart(ctx context.Context, c *websocket.Conn) (StartRequest, error) {
	if s.opts.StartTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.StartTimeout)
		defer cancel()
	}
	var req StartRequest
	if err := wsjson.Read(ctx, c, &req); err != nil {
		return StartRequest{}, fmt.Errorf("reading start message: %w", err)
	}
	if req.Type != "start" {
		return StartRequest{}, fmt.Errorf("%w: type %q", errNotStart, req.Type)
	}
	if req.PatientID == "" {
		req.PatientID = DefaultPatientID
	}
	return req, nil
}
