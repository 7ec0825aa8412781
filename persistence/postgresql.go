// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/shawncarter/NewQuiz/models"
)

// PostgreSQL 数据库实现（不走ORM，适合只读查询工具等轻量场景）
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_sessions (
            id SERIAL PRIMARY KEY,
            code VARCHAR(16) UNIQUE NOT NULL,
            status VARCHAR(20) NOT NULL,
            current_round INT DEFAULT 0,
            max_players INT DEFAULT 10,
            config JSONB,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_players (
            id SERIAL PRIMARY KEY,
            session_code VARCHAR(16) NOT NULL,
            player_id BIGINT NOT NULL,
            name VARCHAR(255) NOT NULL,
            specialist_subject VARCHAR(255),
            connected BOOLEAN DEFAULT TRUE,
            score INT DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (session_code, player_id)
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS round_answers (
            id SERIAL PRIMARY KEY,
            session_code VARCHAR(16) NOT NULL,
            round_number INT NOT NULL,
            player_id BIGINT NOT NULL,
            answer_text TEXT NOT NULL,
            is_valid BOOLEAN,
            is_unique BOOLEAN,
            points INT,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS score_history (
            id SERIAL PRIMARY KEY,
            session_code VARCHAR(16) NOT NULL,
            player_id BIGINT NOT NULL,
            round_number INT,
            points_change INT NOT NULL,
            reason VARCHAR(255) NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_players_session ON game_players(session_code);
        CREATE INDEX IF NOT EXISTS idx_round_answers_session_round ON round_answers(session_code, round_number);
        CREATE INDEX IF NOT EXISTS idx_score_history_session ON score_history(session_code);
    `)

	return err
}

// SaveSession 保存会话状态
func (p *PostgreSQL) SaveSession(session *models.Session) error {
	configJSON, err := json.Marshal(session.Config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// UPSERT (PostgreSQL 9.5+)
	query := `
        INSERT INTO game_sessions (code, status, current_round, max_players, config, updated_at)
        VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
        ON CONFLICT (code)
        DO UPDATE SET status = $2, current_round = $3, config = $5, updated_at = CURRENT_TIMESTAMP
    `
	_, err = p.db.ExecContext(ctx, query, session.Code, string(session.Status),
		session.CurrentRound, session.MaxPlayers, configJSON)
	return err
}

// SavePlayer 保存玩家状态
func (p *PostgreSQL) SavePlayer(sessionCode string, player *models.Player) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO game_players (session_code, player_id, name, specialist_subject, connected, score, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
        ON CONFLICT (session_code, player_id)
        DO UPDATE SET name = $3, specialist_subject = $4, connected = $5, score = $6, updated_at = CURRENT_TIMESTAMP
    `
	_, err := p.db.ExecContext(ctx, query, sessionCode, player.ID, player.Name,
		player.SpecialistSubject, player.Connected, player.Score)
	return err
}

// SaveRoundAnswers 批量写入回合答案
func (p *PostgreSQL) SaveRoundAnswers(sessionCode string, roundNumber int, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO round_answers (session_code, round_number, player_id, answer_text, is_valid, is_unique, points)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	for _, a := range answers {
		if _, err := tx.ExecContext(ctx, query, sessionCode, roundNumber,
			a.PlayerID, a.Text, a.IsValid, a.IsUnique, a.Points); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendScoreHistory 追加得分变更记录
func (p *PostgreSQL) AppendScoreHistory(sessionCode string, playerID int64, roundNumber int, change int, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO score_history (session_code, player_id, round_number, points_change, reason)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := p.db.ExecContext(ctx, query, sessionCode, playerID, roundNumber, change, reason)
	return err
}

// LoadSession 按会话码加载会话
func (p *PostgreSQL) LoadSession(code string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT code, status, current_round, max_players, config, created_at
        FROM game_sessions WHERE code = $1
    `
	var (
		session    models.Session
		status     string
		configJSON []byte
	)
	err := p.db.QueryRowContext(ctx, query, code).Scan(&session.Code, &status,
		&session.CurrentRound, &session.MaxPlayers, &configJSON, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	session.Status = models.SessionStatus(status)
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &session.Config); err != nil {
			return nil, err
		}
	}
	return &session, nil
}

// LoadPlayers 加载会话的全部玩家
func (p *PostgreSQL) LoadPlayers(code string) ([]*models.Player, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT player_id, name, specialist_subject, score, created_at
        FROM game_players WHERE session_code = $1 ORDER BY created_at
    `
	rows, err := p.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var (
			player  models.Player
			subject sql.NullString
		)
		if err := rows.Scan(&player.ID, &player.Name, &subject, &player.Score, &player.JoinedAt); err != nil {
			return nil, err
		}
		player.SpecialistSubject = subject.String
		players = append(players, &player)
	}
	return players, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
