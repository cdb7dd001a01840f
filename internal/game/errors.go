// internal/game/errors.go
package game

// Error codes carried to clients alongside the message.
const (
	CodeInvalidAction      = 4000
	CodeNotYourTurn        = 4001
	CodeCardNotHeld        = 4002
	CodeInsufficientPlayer = 4003
	CodeGameFull           = 4004
	CodeInvalidTrucoLevel  = 4005
	CodeInvalidEnvidoLevel = 4006
	CodeTooLateToChant     = 4007
	CodeEnvidoFinished     = 4008
	CodeGameOver           = 4009
)

// GameError is a caller-recoverable domain error. Every manager operation
// either succeeds completely or returns one of these without touching
// persisted state.
type GameError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *GameError) Error() string {
	return e.Message
}

var (
	ErrInvalidAction       = &GameError{Code: CodeInvalidAction, Message: "invalid action"}
	ErrCardsNotDealt       = &GameError{Code: CodeInvalidAction, Message: "cards must be dealt first"}
	ErrNotYourTurn         = &GameError{Code: CodeNotYourTurn, Message: "not your turn"}
	ErrCardNotHeld         = &GameError{Code: CodeCardNotHeld, Message: "you do not hold that card"}
	ErrInsufficientPlayers = &GameError{Code: CodeInsufficientPlayer, Message: "not enough players"}
	ErrGameFull            = &GameError{Code: CodeGameFull, Message: "game is full"}
	ErrInvalidTrucoLevel   = &GameError{Code: CodeInvalidTrucoLevel, Message: "invalid truco level"}
	ErrInvalidEnvidoLevel  = &GameError{Code: CodeInvalidEnvidoLevel, Message: "cannot chant a lower level"}
	ErrTooLateToChant      = &GameError{Code: CodeTooLateToChant, Message: "envido must be chanted during the first round"}
	ErrEnvidoFinished      = &GameError{Code: CodeEnvidoFinished, Message: "envido has already finished"}
	ErrGameOver            = &GameError{Code: CodeGameOver, Message: "game is already over"}
)
