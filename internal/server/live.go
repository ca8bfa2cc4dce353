package server

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	surveyschema "github.com/reoring/surveyschema"
)

const (
	liveWriteWait  = 10 * time.Second
	liveMaxMessage = 4 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// liveMessage is one editor snapshot sent over the live channel. Save
// additionally records the snapshot as an autosave.
type liveMessage struct {
	Code   string `json:"code"`
	Format string `json:"format"`
	Save   bool   `json:"save,omitempty"`
}

type liveReply struct {
	surveyschema.ParseResult
	Saved bool   `json:"saved,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleLive answers each inbound editor snapshot with its ParseResult.
func (s *Server) handleLive(c *gin.Context) {
	ctx := c.Request.Context()
	sv, _ := surveyFromContext(ctx)
	id := sv.ID
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "id", id, "error", err)
		return
	}
	defer conn.Close()
	pongWait := s.opts.LivePongWait
	conn.SetReadLimit(liveMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	done := make(chan struct{})
	defer close(done)
	go s.pingLive(conn, pongWait*9/10, done)
	s.logger.Debug("live session opened", "id", id)

	for {
		var msg liveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				s.logger.Debug("live session read ended", "id", id, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		reply := liveReply{ParseResult: s.parse(msg.Code, msg.Format, nil)}
		if msg.Save {
			if f, err := surveyschema.ParseFormat(msg.Format); err != nil {
				reply.Error = err.Error()
			} else if _, _, err := s.autosave(ctx, id, msg.Code, f); err != nil {
				reply.Error = err.Error()
			} else {
				reply.Saved = true
			}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("live session write failed", "id", id, "error", err)
			return
		}
	}
}

// pingLive keeps an idle session alive: browsers answer pings with pongs,
// and each pong pushes the read deadline back. It returns when done closes
// or a ping cannot be written.
func (s *Server) pingLive(conn *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}
