// network/protocol.go
package network

// Inbound message types. The first frame on any connection must be an
// identify; everything else is rejected until the client is bound to a
// session.
const (
	MsgTypeIdentify        = "identify"
	MsgTypeSubmitAnswer    = "submit_answer"
	MsgTypeSubmitRapidFire = "submit_rapid_fire_answers"
	MsgTypeStartGame       = "start_game"
	MsgTypeStartRound      = "start_round"
	MsgTypeEndRound        = "end_round"
	MsgTypeRestartGame     = "restart_game"
	MsgTypeValidateAnswer  = "validate_answer"
	MsgTypeSelectPlayer    = "select_player"
	MsgTypeReadyResponse   = "ready_response"
	MsgTypeContinuePlayer  = "continue_to_next_player"
)

// IdentifyPayload binds a connection to a session. PlayerID 0 with IsGM set
// identifies the game master screen; reconnecting players send the ID they
// were issued at join.
type IdentifyPayload struct {
	SessionCode string `json:"session_code"`
	PlayerID    int64  `json:"player_id,omitempty"`
	IsGM        bool   `json:"is_gm,omitempty"`
}

type SubmitAnswerPayload struct {
	Answer string `json:"answer"`
}

type RapidFireAnswerPayload struct {
	QuestionID     int    `json:"question_id"`
	Choice         string `json:"choice"`
	ResponseTimeMS int    `json:"response_time_ms,omitempty"`
}

type SubmitRapidFirePayload struct {
	Answers []RapidFireAnswerPayload `json:"answers"`
}

type ValidateAnswerPayload struct {
	PlayerID int64 `json:"player_id"`
	IsValid  bool  `json:"is_valid"`
}

type SelectPlayerPayload struct {
	PlayerID int64 `json:"player_id"`
}

type ReadyResponsePayload struct {
	IsReady bool `json:"is_ready"`
}
