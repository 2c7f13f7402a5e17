package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RuuizOr/CiberseguridadEquipo2/contract"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain"
	"github.com/RuuizOr/CiberseguridadEquipo2/domain/event"
)

// session owns one upgraded socket: a read pump decoding inbound envelopes
// into service calls, and a write pump draining the connection's sink.
type session struct {
	id      domain.ConnID
	conn    *websocket.Conn
	sink    *ConnSink
	service contract.IRelayService
	log     *slog.Logger

	writeTimeout time.Duration
	pongTimeout  time.Duration

	done chan struct{}
}

func newSession(id domain.ConnID, conn *websocket.Conn, sink *ConnSink,
	service contract.IRelayService, log *slog.Logger,
	writeTimeout, pongTimeout time.Duration) *session {
	return &session{
		id:           id,
		conn:         conn,
		sink:         sink,
		service:      service,
		log:          log,
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
		done:         make(chan struct{}),
	}
}

// readPump blocks until the socket dies, then triggers the same cleanup an
// explicit disconnect would.
func (s *session) readPump() {
	defer func() {
		close(s.done)
		s.service.Disconnect(s.id)
		_ = s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Socket read failed", "conn_id", s.id, "error", err)
			}
			return
		}
		s.handleFrame(raw)
	}
}

// handleFrame decodes one inbound envelope and drives the service.
// A malformed frame earns the sender a notice and nothing else.
func (s *session) handleFrame(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		s.reject("Malformed message.")
		return
	}

	switch env.Type {
	case TypeRegister:
		var req RegisterRequest
		if err := decode(env.Data, &req); err != nil {
			s.reject("Malformed register payload.")
			return
		}
		s.service.RegisterIdentity(s.id, req.Name, req.PublicKey)
	case TypeChooseGroup:
		var req ChooseGroupRequest
		if err := decode(env.Data, &req); err != nil {
			s.reject("Malformed group instruction.")
			return
		}
		s.service.ChooseGroup(s.id, req.Instruction)
	case TypeGetRecipients:
		_ = s.sink.Consume(event.Recipients{Users: s.service.Recipients(s.id)})
	case TypeEncrypted:
		var req EncryptedRequest
		if err := decode(env.Data, &req); err != nil {
			s.reject("Malformed encrypted payload.")
			return
		}
		s.service.RelayEncrypted(s.id, req.Payload)
	case TypeText:
		var req TextRequest
		if err := decode(env.Data, &req); err != nil {
			s.reject("Malformed text payload.")
			return
		}
		s.service.HandleText(s.id, req.Content)
	default:
		s.reject(fmt.Sprintf("Unsupported event type %q.", env.Type))
	}
}

func (s *session) reject(text string) {
	_ = s.sink.Consume(event.Notice{Text: text})
}

// writePump drains the sink until the read side finishes. Pings keep the
// read deadline alive on idle connections.
func (s *session) writePump() {
	ticker := time.NewTicker(s.pongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.sink.Out():
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Warn("Socket write failed", "conn_id", s.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
