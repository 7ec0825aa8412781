// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/shawncarter/NewQuiz/models"
)

// Database 会话持久化接口。游戏全程在内存中进行；这里只做落库，
// 供重启恢复和赛后查询使用。
type Database interface {
	SaveSession(session *models.Session) error
	SavePlayer(sessionCode string, player *models.Player) error
	SaveRoundAnswers(sessionCode string, roundNumber int, answers []*models.Answer) error
	AppendScoreHistory(sessionCode string, playerID int64, roundNumber int, change int, reason string) error
	LoadSession(code string) (*models.Session, error)
	LoadPlayers(code string) ([]*models.Player, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
