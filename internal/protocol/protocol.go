package protocol

import (
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

const Version = "1.0"

// Client message kinds.
type ClientKind uint8

const (
	ClientEndTurn ClientKind = iota + 1
	ClientCommand
	ClientSaveGame
)

func (k ClientKind) String() string {
	switch k {
	case ClientEndTurn:
		return "END_TURN"
	case ClientCommand:
		return "COMMAND"
	case ClientSaveGame:
		return "SAVE_GAME"
	}
	return "UNKNOWN"
}

// ClientMessage is everything a player can ask of the server.
type ClientMessage struct {
	Kind ClientKind
	// Unit and Command are set for ClientCommand.
	Unit    uint8
	Command battle.Command
	// SaveName is set for ClientSaveGame.
	SaveName string
}

func EndTurn() ClientMessage { return ClientMessage{Kind: ClientEndTurn} }

func Command(unit uint8, cmd battle.Command) ClientMessage {
	return ClientMessage{Kind: ClientCommand, Unit: unit, Command: cmd}
}

func SaveGame(name string) ClientMessage { return ClientMessage{Kind: ClientSaveGame, SaveName: name} }

// Server message kinds.
type ServerKind uint8

const (
	ServerInitialState ServerKind = iota + 1
	ServerResponses
	ServerGameFull
)

func (k ServerKind) String() string {
	switch k {
	case ServerInitialState:
		return "INITIAL_STATE"
	case ServerResponses:
		return "RESPONSES"
	case ServerGameFull:
		return "GAME_FULL"
	}
	return "UNKNOWN"
}

// ServerMessage is what the server sends one side.
type ServerMessage struct {
	Kind ServerKind
	// ProtocolVersion is only set on InitialState.
	ProtocolVersion string
	// Map and Side are set for ServerInitialState. Map is already redacted.
	Map  *battle.Map
	Side units.Side
	// Responses is set for ServerResponses.
	Responses []battle.Response
}

func InitialState(m *battle.Map, side units.Side) ServerMessage {
	return ServerMessage{Kind: ServerInitialState, ProtocolVersion: Version, Map: m, Side: side}
}

func Responses(rs []battle.Response) ServerMessage {
	return ServerMessage{Kind: ServerResponses, Responses: rs}
}

func GameFull() ServerMessage { return ServerMessage{Kind: ServerGameFull} }
