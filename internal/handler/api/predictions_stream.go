package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"Horacle/internal/domain/models"
	xhttp "Horacle/pkg/http"
	xlogger "Horacle/pkg/logger"
)

const (
	frameEvent   = "event"
	frameSummary = "summary"
	frameError   = "error"

	writeWait = 10 * time.Second
)

// StreamFrame is one websocket message sent to the client.
type StreamFrame struct {
	Type    string                  `json:"type"`
	Event   *models.EventRecord     `json:"event,omitempty"`
	Summary *models.StreamSummary   `json:"summary,omitempty"`
	Errors  []*xhttp.AppError       `json:"errors,omitempty"`
	Fields  []xhttp.ValidationError `json:"fields,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 16384,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Stream upgrades to a websocket, reads one PredictionRequest frame, then
// writes an event frame per record followed by a summary frame. Errors are
// sent as a single error frame before closing.
func (h *PredictionsEchoHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(writeWait * 3))
	var req models.PredictionRequest
	_, raw, err := conn.ReadMessage()
	if err != nil {
		h.logger.Warn("websocket read failed", xlogger.Error(err))
		return nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		h.closeWith(conn, StreamFrame{Type: frameError, Errors: []*xhttp.AppError{xhttp.BadRequestError("malformed request: " + err.Error())}})
		return nil
	}
	if verrs := xhttp.ValidateStruct(ctx, &req); verrs != nil {
		h.closeWith(conn, StreamFrame{Type: frameError, Fields: verrs})
		return nil
	}
	if req.RequestID == "" {
		req.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	}

	_ = conn.SetReadDeadline(time.Time{})
	// The client never sends after the request; a read error means it left.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	stopPing := h.keepalive(ctx, conn)
	defer stopPing()

	sent := 0
	res, err := h.svc.Stream(ctx, req, func(ev models.EventRecord) error {
		sent++
		return h.write(conn, StreamFrame{Type: frameEvent, Event: &ev})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		ae := toAppError(err, func(e error) { h.logger.Error("stream failed", xlogger.Error(e)) })
		var appErr *xhttp.AppError
		if errors.As(ae, &appErr) {
			h.closeWith(conn, StreamFrame{Type: frameError, Errors: []*xhttp.AppError{appErr}})
		}
		return nil
	}

	h.closeWith(conn, StreamFrame{Type: frameSummary, Summary: &models.StreamSummary{
		RunID:        res.RunID,
		Events:       sent,
		Degradations: res.Degradations,
		Done:         true,
	}})
	return nil
}

// keepalive pings until ctx ends. The returned func stops it and waits.
func (h *PredictionsEchoHandler) keepalive(ctx context.Context, conn *websocket.Conn) func() {
	if h.streamPing <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTicker(h.streamPing)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-t.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

func (h *PredictionsEchoHandler) write(conn *websocket.Conn, f StreamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

func (h *PredictionsEchoHandler) closeWith(conn *websocket.Conn, f StreamFrame) {
	if err := h.write(conn, f); err != nil {
		h.logger.Debug("websocket write failed", xlogger.Error(err))
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, f.Type)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
