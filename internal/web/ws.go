/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	"github.com/friendsincode/videogallery/internal/gallery"
	"github.com/friendsincode/videogallery/internal/telemetry"
	"github.com/friendsincode/videogallery/internal/viewport"
)

const (
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// Frame types sent to the page.
const (
	frameSession  = "session"
	frameCommand  = "command"
	frameSnapshot = "snapshot"
	frameError    = "error"
	framePing     = "ping"
)

type wsMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

type wsError struct {
	Kind    gallery.EventKind `json:"kind,omitempty"`
	Message string            `json:"message"`
}

// wsClient delivers session commands over the page's websocket.
type wsClient struct {
	conn *ws.Conn
}

func (c *wsClient) Send(ctx context.Context, cmd gallery.Command) error {
	return writeFrame(ctx, c.conn, wsMessage{Type: frameCommand, Timestamp: time.Now(), Payload: cmd})
}

// GalleryWebSocket owns one gallery session for the lifetime of the socket.
// The page forwards media notifications as events and executes the commands
// it receives.
func (h *Handler) GalleryWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	telemetry.WebsocketConnections.Inc()
	defer telemetry.WebsocketConnections.Dec()

	ctx := r.Context()

	session, err := h.manager.Open(&wsClient{conn: conn}, viewport.HintFromUserAgent(r.UserAgent()))
	if err != nil {
		if errors.Is(err, gallery.ErrSessionLimit) {
			telemetry.SessionsRejected.Inc()
			conn.Close(ws.StatusTryAgainLater, "too many sessions")
			return
		}
		h.logger.Error().Err(err).Msg("open session failed")
		conn.Close(ws.StatusInternalError, "session unavailable")
		return
	}
	defer func() { _ = h.manager.Close(session.ID()) }()

	logger := h.logger.With().Str("session_id", session.ID()).Logger()
	logger.Debug().Msg("gallery websocket connected")

	if err := writeFrame(ctx, conn, wsMessage{Type: frameSession, SessionID: session.ID(), Timestamp: time.Now()}); err != nil {
		logger.Debug().Err(err).Msg("send session frame failed")
		return
	}

	done := make(chan struct{})
	eventCh := make(chan gallery.Event, 64)

	go func() {
		defer close(done)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if ws.CloseStatus(err) != ws.StatusNormalClosure && ws.CloseStatus(err) != ws.StatusGoingAway {
					logger.Debug().Err(err).Msg("websocket read error")
				}
				return
			}

			var ev gallery.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				logger.Warn().Err(err).Msg("invalid websocket message")
				_ = writeFrame(ctx, conn, wsMessage{
					Type:      frameError,
					Timestamp: time.Now(),
					Payload:   wsError{Message: "invalid message: " + err.Error()},
				})
				continue
			}

			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "context cancelled")
			return

		case <-done:
			conn.Close(ws.StatusNormalClosure, "client disconnected")
			return

		case <-pingTicker.C:
			if err := writeFrame(ctx, conn, wsMessage{Type: framePing, Timestamp: time.Now()}); err != nil {
				logger.Debug().Err(err).Msg("ping failed")
				return
			}

		case ev := <-eventCh:
			if err := session.Apply(ctx, ev); err != nil {
				logger.Debug().Err(err).Str("kind", string(ev.Kind)).Msg("event rejected")
				_ = writeFrame(ctx, conn, wsMessage{
					Type:      frameError,
					Timestamp: time.Now(),
					Payload:   wsError{Kind: ev.Kind, Message: err.Error()},
				})
				continue
			}
			if ev.Kind == gallery.KindHello {
				if err := writeFrame(ctx, conn, wsMessage{Type: frameSnapshot, SessionID: session.ID(), Timestamp: time.Now(), Payload: session.Snapshot()}); err != nil {
					logger.Debug().Err(err).Msg("send snapshot failed")
					return
				}
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *ws.Conn, msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, ws.MessageText, data)
}
