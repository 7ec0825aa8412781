// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormSession 会话持久化模型
type GormSession struct {
	gorm.Model
	Code         string `gorm:"uniqueIndex;not null"`
	Status       string `gorm:"not null"`
	CurrentRound int    `gorm:"default:0"`
	MaxPlayers   int    `gorm:"default:10"`
	Config       string `gorm:"type:jsonb"`
}

// GormPlayer 玩家持久化模型
type GormPlayer struct {
	gorm.Model
	SessionCode       string `gorm:"index:idx_player_session;not null"`
	PlayerID          int64  `gorm:"index:idx_player_session;not null"`
	Name              string `gorm:"not null"`
	SpecialistSubject string
	Connected         bool `gorm:"default:true"`
	Score             int  `gorm:"default:0"`
}

// GormRoundAnswer 每轮最终答案记录（回合结束后写入）
type GormRoundAnswer struct {
	gorm.Model
	SessionCode string `gorm:"index:idx_answer_round;not null"`
	RoundNumber int    `gorm:"index:idx_answer_round;not null"`
	PlayerID    int64  `gorm:"not null"`
	AnswerText  string `gorm:"not null"`
	IsValid     bool
	IsUnique    bool
	Points      int
}

// GormScoreHistory 得分变更审计记录
type GormScoreHistory struct {
	gorm.Model
	SessionCode  string `gorm:"index;not null"`
	PlayerID     int64  `gorm:"not null"`
	RoundNumber  int
	PointsChange int    `gorm:"not null"`
	Reason       string `gorm:"not null"`
}
