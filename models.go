package main

import "encoding/json"

// Message is the envelope for every event exchanged with the game server
// and with presentation clients on the bridge.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// inboundMessage defers payload decoding until the event name is known.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type User struct {
	Username string `json:"username"`
}

type Player struct {
	UserID string `json:"userId"`
	User   User   `json:"user"`
}

func (p Player) Name() string {
	if p.User.Username == "" {
		return "Someone"
	}
	return p.User.Username
}

type Edge struct {
	Drawn    bool   `json:"drawn"`
	PlayerID string `json:"playerId,omitempty"`
}

type Box struct {
	Owner string `json:"owner,omitempty"`
}

// GameState is the authoritative board pushed by the server. It is replaced
// wholesale on every update and never modified after decoding.
type GameState struct {
	Code               string          `json:"code"`
	GridSize           int             `json:"gridSize"`
	Players            []Player        `json:"players"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	Edges              map[EdgeID]Edge `json:"edges"`
	Boxes              map[BoxID]Box   `json:"boxes"`
}

// CurrentPlayerID returns "" when the index is out of range.
func (g *GameState) CurrentPlayerID() string {
	if g == nil || g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return ""
	}
	return g.Players[g.CurrentPlayerIndex].UserID
}

func (g *GameState) Player(userID string) (Player, bool) {
	if g == nil {
		return Player{}, false
	}
	for _, p := range g.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return Player{}, false
}

func (g *GameState) EdgeDrawn(id EdgeID) bool {
	if g == nil {
		return false
	}
	return g.Edges[id].Drawn
}

// Client -> server payloads

type CreateGameData struct {
	GridSize int    `json:"gridSize"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type JoinGameData struct {
	Code     string `json:"code"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

type MakeMoveData struct {
	Code   string `json:"code"`
	EdgeID EdgeID `json:"edgeId"`
	UserID string `json:"userId"`
}

// Server -> client payloads

type GameCreatedData struct {
	Code string `json:"code"`
}

type GameJoinedData struct {
	GameState *GameState `json:"gameState"`
	Player    Player     `json:"player"`
}

type GameStateUpdatedData struct {
	GameState *GameState `json:"gameState"`
}

type NextPlayerData struct {
	PlayerID string `json:"playerId"`
}

type NoticeData struct {
	Message string `json:"message"`
}

type GameCompletedData struct {
	FinalState *GameState `json:"finalState"`
}

type GameEndedData struct {
	IsTie    bool   `json:"isTie"`
	WinnerID string `json:"winnerId"`
}

// Event names on the game server wire.
const (
	EventCreateGame       = "createGame"
	EventJoinGame         = "joinGame"
	EventMakeMove         = "makeMove"
	EventGameCreated      = "gameCreated"
	EventGameJoined       = "gameJoined"
	EventPlayerJoined     = "playerJoined"
	EventGameStateUpdated = "gameStateUpdated"
	EventNextPlayer       = "nextPlayer"
	EventInvalidMove      = "invalidMove"
	EventGameCompleted    = "gameCompleted"
	EventGameEnded        = "gameEnded"
	EventError            = "error"
)
