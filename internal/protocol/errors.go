package protocol

import "errors"

var (
	ErrGameFull   = errors.New("protocol: game is full")
	ErrWrongPhase = errors.New("protocol: message not valid in this phase")
	ErrBadVersion = errors.New("protocol: version mismatch")
)

const (
	// Framing and transport.
	ErrCodeBadFrame   = "E_BAD_FRAME"
	ErrCodeBadVersion = "E_BAD_VERSION"

	// Session state.
	ErrCodeGameFull   = "E_GAME_FULL"
	ErrCodeWrongPhase = "E_WRONG_PHASE"
	ErrCodeGameOver   = "E_GAME_OVER"

	// Command layer.
	ErrCodeInvalidCommand = "E_INVALID_COMMAND"
	ErrCodeNoSave         = "E_NO_SAVE"
	ErrCodeInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrCodeBadFrame:       {},
	ErrCodeBadVersion:     {},
	ErrCodeGameFull:       {},
	ErrCodeWrongPhase:     {},
	ErrCodeGameOver:       {},
	ErrCodeInvalidCommand: {},
	ErrCodeNoSave:         {},
	ErrCodeInternal:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
