// internal/httpserver/ws.go
//
// Live display surface over a websocket. Each connection subscribes to its
// session and receives every update as JSON: a snapshot first, then
// loading/board/failed/cell commands as they happen. The client may also
// send session events ({"kind":"start"} or {"kind":"activate","at":...})
// over the same socket.
//
// One goroutine writes (updates and pings), one reads (events and pongs).

package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/jeopardy/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 1024
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts same-host pages and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.opts.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("session", sess.ID()).Msg("websocket upgrade failed")
		return
	}

	updates, cancel := sess.Subscribe()
	ctx, stop := context.WithCancel(context.Background())
	log.Debug().Str("session", sess.ID()).Msg("websocket attached")

	go writePump(conn, sess.Snapshot(), updates)
	readPump(ctx, conn, sess)

	stop()
	cancel()
	log.Debug().Str("session", sess.ID()).Msg("websocket detached")
}

// writePump sends first, then every update until the channel closes.
func writePump(conn *websocket.Conn, first session.Update, updates <-chan session.Update) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(first); err != nil {
		return
	}
	for {
		select {
		case u, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Session closed or we fell behind.
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump dispatches client events until the connection fails. Start
// events run in their own goroutine so a restart can arrive while a load
// is still in flight.
func readPump(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev session.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session", sess.ID()).Msg("websocket read")
			}
			return
		}
		if ev.Kind == session.EventStart {
			go dispatch(ctx, sess, ev)
			continue
		}
		dispatch(ctx, sess, ev)
	}
}

// dispatch runs one event. Results reach the client through the update
// stream, so only the error is of interest here.
func dispatch(ctx context.Context, sess *session.Session, ev session.Event) {
	if _, err := sess.Dispatch(ctx, ev); err != nil {
		log.Debug().Err(err).Str("session", sess.ID()).Str("kind", string(ev.Kind)).Msg("websocket event")
	}
}
