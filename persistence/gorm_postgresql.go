// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shawncarter/NewQuiz/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormSession{},
		&models.GormPlayer{},
		&models.GormRoundAnswer{},
		&models.GormScoreHistory{},
	)
}

// SaveSession 保存会话状态（UPSERT）
func (p *GormPostgreSQL) SaveSession(session *models.Session) error {
	configJSON, err := json.Marshal(session.Config)
	if err != nil {
		return err
	}

	var row models.GormSession
	result := p.db.Where("code = ?", session.Code).First(&row)

	if result.Error == gorm.ErrRecordNotFound {
		row = models.GormSession{
			Code:         session.Code,
			Status:       string(session.Status),
			CurrentRound: session.CurrentRound,
			MaxPlayers:   session.MaxPlayers,
			Config:       string(configJSON),
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.Status = string(session.Status)
	row.CurrentRound = session.CurrentRound
	row.Config = string(configJSON)
	return p.db.Save(&row).Error
}

// SavePlayer 保存玩家状态（UPSERT）
func (p *GormPostgreSQL) SavePlayer(sessionCode string, player *models.Player) error {
	var row models.GormPlayer
	result := p.db.Where("session_code = ? AND player_id = ?", sessionCode, player.ID).First(&row)

	if result.Error == gorm.ErrRecordNotFound {
		row = models.GormPlayer{
			SessionCode:       sessionCode,
			PlayerID:          player.ID,
			Name:              player.Name,
			SpecialistSubject: player.SpecialistSubject,
			Connected:         player.Connected,
			Score:             player.Score,
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.Name = player.Name
	row.SpecialistSubject = player.SpecialistSubject
	row.Connected = player.Connected
	row.Score = player.Score
	return p.db.Save(&row).Error
}

// SaveRoundAnswers 回合结束后批量写入最终答案
func (p *GormPostgreSQL) SaveRoundAnswers(sessionCode string, roundNumber int, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	rows := make([]models.GormRoundAnswer, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, models.GormRoundAnswer{
			SessionCode: sessionCode,
			RoundNumber: roundNumber,
			PlayerID:    a.PlayerID,
			AnswerText:  a.Text,
			IsValid:     a.IsValid,
			IsUnique:    a.IsUnique,
			Points:      a.Points,
		})
	}
	return p.db.Create(&rows).Error
}

// AppendScoreHistory 追加得分变更记录
func (p *GormPostgreSQL) AppendScoreHistory(sessionCode string, playerID int64, roundNumber int, change int, reason string) error {
	row := models.GormScoreHistory{
		SessionCode:  sessionCode,
		PlayerID:     playerID,
		RoundNumber:  roundNumber,
		PointsChange: change,
		Reason:       reason,
	}
	return p.db.Create(&row).Error
}

// LoadSession 按会话码加载会话
func (p *GormPostgreSQL) LoadSession(code string) (*models.Session, error) {
	var row models.GormSession
	if err := p.db.Where("code = ?", code).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var config models.SessionConfig
	if row.Config != "" {
		if err := json.Unmarshal([]byte(row.Config), &config); err != nil {
			return nil, err
		}
	}

	return &models.Session{
		Code:         row.Code,
		Status:       models.SessionStatus(row.Status),
		CurrentRound: row.CurrentRound,
		MaxPlayers:   row.MaxPlayers,
		Config:       config,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// LoadPlayers 加载会话的全部玩家
func (p *GormPostgreSQL) LoadPlayers(code string) ([]*models.Player, error) {
	var rows []models.GormPlayer
	if err := p.db.Where("session_code = ?", code).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}

	players := make([]*models.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, &models.Player{
			ID:                row.PlayerID,
			Name:              row.Name,
			SpecialistSubject: row.SpecialistSubject,
			Connected:         false, // 连接状态不跨重启
			Score:             row.Score,
			JoinedAt:          row.CreatedAt,
		})
	}
	return players, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
