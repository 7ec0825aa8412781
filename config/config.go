package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig holds the default gameplay tunables. Per-session configuration
// starts from these values and may override the round count and timing.
type GameConfig struct {
	RoundSeconds            int `mapstructure:"round_seconds"`
	RapidFireSeconds        int `mapstructure:"rapid_fire_seconds"`
	GeneralKnowledgeSeconds int `mapstructure:"general_knowledge_seconds"`
	QuestionsPerPlayer      int `mapstructure:"questions_per_player"`
	NumRounds               int `mapstructure:"num_rounds"`
	MaxPlayers              int `mapstructure:"max_players"`
	UniquePoints            int `mapstructure:"unique_points"`
	ValidPoints             int `mapstructure:"valid_points"`
	CorrectPoints           int `mapstructure:"correct_points"`
	StreakBonus             int `mapstructure:"streak_bonus"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("game.round_seconds", 60)
	viper.SetDefault("game.rapid_fire_seconds", 90)
	viper.SetDefault("game.general_knowledge_seconds", 120)
	viper.SetDefault("game.questions_per_player", 20)
	viper.SetDefault("game.num_rounds", 5)
	viper.SetDefault("game.max_players", 10)
	viper.SetDefault("game.unique_points", 10)
	viper.SetDefault("game.valid_points", 5)
	viper.SetDefault("game.correct_points", 10)
	viper.SetDefault("game.streak_bonus", 5)

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// Defaults cover every key; a missing file is not an error.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
