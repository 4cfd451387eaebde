package net

import "tag-arena/server/internal/game"

// ProtocolVersion tracks the wire-protocol revision expected by clients.
const ProtocolVersion = 1

// Client message type identifiers.
const (
	TypeCreateRoom = "createRoom"
	TypeJoinRoom   = "joinRoom"
	TypeStartGame  = "startGame"
	TypeInput      = "input"
	TypeHeartbeat  = "heartbeat"
)

// Server message type identifiers.
const (
	TypeConnected   = "connected"
	TypeRoomCreated = "roomCreated"
	TypeRoomJoined  = "roomJoined"
	TypeGameStarted = "gameStarted"
	TypeUpdateState = "updateState"
	TypeError       = "error"
)

// ClientMessage is the single inbound envelope. Absent intent fields decode
// as false, so a malformed input degrades to "no keys held".
type ClientMessage struct {
	Ver    int    `json:"ver,omitempty"`
	Type   string `json:"type"`
	Room   string `json:"room,omitempty"`
	Up     bool   `json:"up,omitempty"`
	Down   bool   `json:"down,omitempty"`
	Left   bool   `json:"left,omitempty"`
	Right  bool   `json:"right,omitempty"`
	SentAt int64  `json:"sentAt,omitempty"`
}

// ConnectedMessage hands the freshly minted connection ID to the client.
type ConnectedMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RoomCreatedMessage acknowledges room creation with the generated code.
type RoomCreatedMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Room string `json:"room"`
}

// RoomJoinedMessage acknowledges a join with the seat the player received.
type RoomJoinedMessage struct {
	Ver   int    `json:"ver"`
	Type  string `json:"type"`
	Room  string `json:"room"`
	ID    string `json:"id"`
	Slot  int    `json:"slot"`
	Color string `json:"color"`
}

// GameStartedMessage tells every room member the simulation has begun.
type GameStartedMessage struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Room string `json:"room"`
}

// StateMessage is the periodic full-state broadcast.
type StateMessage struct {
	Ver        int             `json:"ver"`
	Type       string          `json:"type"`
	Room       string          `json:"room"`
	Players    []game.Player   `json:"players"`
	Platforms  []game.Platform `json:"platforms"`
	Tick       uint64          `json:"tick"`
	ServerTime int64           `json:"serverTime"`
}

// ErrorMessage is a transient, non-fatal notification for the originating
// connection only.
type ErrorMessage struct {
	Ver     int    `json:"ver"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HeartbeatMessage echoes liveness probes with server time and measured RTT.
type HeartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// Protocol groups every wire message for schema generation.
type Protocol struct {
	Client      ClientMessage      `json:"client"`
	Connected   ConnectedMessage   `json:"connected"`
	RoomCreated RoomCreatedMessage `json:"roomCreated"`
	RoomJoined  RoomJoinedMessage  `json:"roomJoined"`
	GameStarted GameStartedMessage `json:"gameStarted"`
	State       StateMessage       `json:"state"`
	Error       ErrorMessage       `json:"error"`
	Heartbeat   HeartbeatMessage   `json:"heartbeat"`
}
