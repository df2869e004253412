package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	CountdownSeconds int
	BettingSeconds   int
	DrawingSeconds   int
	CopyingSeconds   int
	VotingSeconds    int

	InitialBalance    float64
	MinPlayers        int
	MaxPlayers        int
	StakeTiers        []int
	OriginalVoteValue float64
	CopyVoteValue     float64
	CorrectVoteBonus  float64
	BlankPenaltyRate  float64
	NoVotePenaltyRate float64

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		CountdownSeconds:         20,
		BettingSeconds:           10,
		DrawingSeconds:           60,
		CopyingSeconds:           60,
		VotingSeconds:            30,
		InitialBalance:           100,
		MinPlayers:               3,
		MaxPlayers:               12,
		StakeTiers:               []int{10, 25, 50},
		OriginalVoteValue:        100,
		CopyVoteValue:            150,
		CorrectVoteBonus:         25,
		BlankPenaltyRate:         0.05,
		NoVotePenaltyRate:        0.02,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("COUNTDOWN_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.CountdownSeconds = value
		}
	}
	if raw := os.Getenv("BETTING_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.BettingSeconds = value
		}
	}
	if raw := os.Getenv("DRAWING_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DrawingSeconds = value
		}
	}
	if raw := os.Getenv("COPYING_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.CopyingSeconds = value
		}
	}
	if raw := os.Getenv("VOTING_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.VotingSeconds = value
		}
	}
	if raw := os.Getenv("INITIAL_BALANCE"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.InitialBalance = value
		}
	}
	if raw := os.Getenv("MIN_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 3 {
			cfg.MinPlayers = value
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPlayers = value
		}
	}
	if raw := os.Getenv("STAKE_TIERS"); raw != "" {
		if tiers := parseTiers(raw); len(tiers) > 0 {
			cfg.StakeTiers = tiers
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}

// parseTiers parses a comma separated list of positive minimum stakes,
// e.g. "10,25,50".
func parseTiers(raw string) []int {
	var tiers []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil || value <= 0 {
			return nil
		}
		tiers = append(tiers, value)
	}
	return tiers
}
