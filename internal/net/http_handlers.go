package net

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"tag-arena/server/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewHTTPHandler exposes the hub over HTTP: health and diagnostics probes
// plus the websocket endpoint every client speaks through.
func NewHTTPHandler(hub *Hub) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/diagnostics", handleDiagnostics(hub)).Methods(http.MethodGet)
	router.HandleFunc("/ws", handleWebsocket(hub))
	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func handleDiagnostics(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(hub.Diagnostics()); err != nil {
			http.Error(w, "encoding failure", http.StatusInternalServerError)
		}
	}
}

func handleWebsocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Printf("websocket upgrade failed: %v", err)
			return
		}

		connID := uuid.NewString()
		sess := hub.Register(connID, conn)

		welcome := ConnectedMessage{Ver: ProtocolVersion, Type: TypeConnected, ID: connID}
		if data, err := json.Marshal(welcome); err == nil {
			if err := sess.Write(data); err != nil {
				hub.logger.Printf("failed to greet %s: %v", connID, err)
				hub.Disconnect(connID)
				return
			}
		}

		go readLoop(hub, sess, conn)
	}
}

// readLoop drains one connection until it errors, dispatching each envelope
// by type. Unknown types and malformed frames are logged and skipped so a
// buggy client cannot take the room down with it.
func readLoop(hub *Hub, sess *Session, conn *websocket.Conn) {
	defer hub.Disconnect(sess.ID())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			hub.logger.Printf("discarding malformed frame from %s: %v", sess.ID(), err)
			continue
		}

		switch msg.Type {
		case TypeCreateRoom:
			handleCreateRoom(hub, sess)
		case TypeJoinRoom:
			handleJoinRoom(hub, sess, msg.Room)
		case TypeStartGame:
			handleStartGame(hub, sess)
		case TypeInput:
			hub.ApplyInput(sess.ID(), intentFrom(msg))
		case TypeHeartbeat:
			handleHeartbeat(hub, sess, msg)
		default:
			hub.logger.Printf("unknown message type %q from %s", msg.Type, sess.ID())
		}
	}
}

func handleCreateRoom(hub *Hub, sess *Session) {
	code := hub.CreateRoom()
	player, err := hub.JoinRoom(sess.ID(), code)
	if err != nil {
		sendError(hub, sess, err)
		return
	}
	sendJSON(hub, sess, RoomCreatedMessage{Ver: ProtocolVersion, Type: TypeRoomCreated, Room: code})
	sendJSON(hub, sess, RoomJoinedMessage{
		Ver:   ProtocolVersion,
		Type:  TypeRoomJoined,
		Room:  code,
		ID:    player.ID,
		Slot:  player.Slot,
		Color: player.Color,
	})
}

func handleJoinRoom(hub *Hub, sess *Session, code string) {
	player, err := hub.JoinRoom(sess.ID(), code)
	if err != nil {
		sendError(hub, sess, err)
		return
	}
	sendJSON(hub, sess, RoomJoinedMessage{
		Ver:   ProtocolVersion,
		Type:  TypeRoomJoined,
		Room:  code,
		ID:    player.ID,
		Slot:  player.Slot,
		Color: player.Color,
	})
}

func handleStartGame(hub *Hub, sess *Session) {
	code, ok := hub.registry.RoomFor(sess.ID())
	if !ok {
		sendJSON(hub, sess, ErrorMessage{Ver: ProtocolVersion, Type: TypeError, Message: "not in a room"})
		return
	}
	if err := hub.StartGame(code); err != nil {
		sendError(hub, sess, err)
	}
}

func handleHeartbeat(hub *Hub, sess *Session, msg ClientMessage) {
	now := time.Now()
	rtt, ok := hub.Heartbeat(sess.ID(), now, msg.SentAt)
	if !ok {
		return
	}
	sendJSON(hub, sess, HeartbeatMessage{
		Ver:        ProtocolVersion,
		Type:       TypeHeartbeat,
		ServerTime: now.UnixMilli(),
		ClientTime: msg.SentAt,
		RTTMillis:  rtt.Milliseconds(),
	})
}

func intentFrom(msg ClientMessage) game.Input {
	return game.Input{Up: msg.Up, Down: msg.Down, Left: msg.Left, Right: msg.Right}
}

func sendError(hub *Hub, sess *Session, err error) {
	sendJSON(hub, sess, ErrorMessage{Ver: ProtocolVersion, Type: TypeError, Message: errorText(err)})
}

func sendJSON(hub *Hub, sess *Session, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		hub.logger.Printf("failed to marshal %T for %s: %v", v, sess.ID(), err)
		return
	}
	if err := sess.Write(data); err != nil {
		hub.logger.Printf("failed to write %T to %s: %v", v, sess.ID(), err)
		hub.Disconnect(sess.ID())
	}
}
