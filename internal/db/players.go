package db

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GetOrCreatePlayer looks up a player account, creating it with the
// starting balance when none exists. The stored username is refreshed on
// every call so renames stick.
func GetOrCreatePlayer(conn *gorm.DB, id, username string, startingBalance float64) (*PlayerRecord, error) {
	if conn == nil {
		return nil, nil
	}
	var record PlayerRecord
	err := conn.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = PlayerRecord{
			ID:         id,
			Username:   username,
			Balance:    startingBalance,
			LastPlayed: time.Now().UTC(),
		}
		if err := conn.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	}
	if err != nil {
		return nil, err
	}
	if record.Username != username {
		record.Username = username
		if err := conn.Model(&record).Update("username", username).Error; err != nil {
			return nil, err
		}
	}
	return &record, nil
}

// UpdatePlayerBalance overwrites the stored balance and bumps last_played.
func UpdatePlayerBalance(conn *gorm.DB, id string, balance float64) error {
	if conn == nil {
		return nil
	}
	return conn.Model(&PlayerRecord{}).Where("id = ?", id).Updates(map[string]any{
		"balance":     balance,
		"last_played": time.Now().UTC(),
	}).Error
}

// GameOutcome is one player's result passed to RecordGameCompletion.
type GameOutcome struct {
	RoomID         string
	PlayerID       string
	Username       string
	BalanceBefore  float64
	BalanceAfter   float64
	Stake          float64
	PointsEarned   int
	OriginalsDrawn int
	CopiesMade     int
	VotesCast      int
	CorrectVotes   int
	Settlement     any
}

// RecordGameCompletion appends a game_history row and folds the outcome
// into the player's cumulative statistics.
func RecordGameCompletion(conn *gorm.DB, outcome GameOutcome) error {
	if conn == nil {
		return nil
	}
	var settlement datatypes.JSON
	if outcome.Settlement != nil {
		raw, err := json.Marshal(outcome.Settlement)
		if err != nil {
			return err
		}
		settlement = datatypes.JSON(raw)
	}
	history := GameHistory{
		RoomID:         outcome.RoomID,
		PlayerID:       outcome.PlayerID,
		Username:       outcome.Username,
		BalanceBefore:  outcome.BalanceBefore,
		BalanceAfter:   outcome.BalanceAfter,
		Stake:          outcome.Stake,
		PointsEarned:   outcome.PointsEarned,
		OriginalsDrawn: outcome.OriginalsDrawn,
		CopiesMade:     outcome.CopiesMade,
		VotesCast:      outcome.VotesCast,
		CorrectVotes:   outcome.CorrectVotes,
		Settlement:     settlement,
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		winnings := outcome.BalanceAfter - outcome.BalanceBefore
		losses := 0.0
		if winnings < 0 {
			losses = -winnings
			winnings = 0
		}
		successfulOriginal := 0
		if outcome.OriginalsDrawn > 0 && outcome.PointsEarned > 0 {
			successfulOriginal = 1
		}
		successfulCopy := 0
		if outcome.CopiesMade > 0 && outcome.PointsEarned > 0 {
			successfulCopy = 1
		}
		return tx.Model(&PlayerRecord{}).Where("id = ?", outcome.PlayerID).Updates(map[string]any{
			"games_played":         gorm.Expr("games_played + 1"),
			"total_winnings":       gorm.Expr("total_winnings + ?", winnings),
			"total_losses":         gorm.Expr("total_losses + ?", losses),
			"successful_originals": gorm.Expr("successful_originals + ?", successfulOriginal),
			"successful_copies":    gorm.Expr("successful_copies + ?", successfulCopy),
			"total_originals":      gorm.Expr("total_originals + ?", outcome.OriginalsDrawn),
			"total_copies":         gorm.Expr("total_copies + ?", outcome.CopiesMade),
			"total_votes_cast":     gorm.Expr("total_votes_cast + ?", outcome.VotesCast),
			"correct_votes":        gorm.Expr("correct_votes + ?", outcome.CorrectVotes),
			"balance":              outcome.BalanceAfter,
			"last_played":          time.Now().UTC(),
		}).Error
	})
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Username       string  `json:"username"`
	Balance        float64 `json:"balance"`
	GamesPlayed    int     `json:"gamesPlayed"`
	TotalWinnings  float64 `json:"totalWinnings"`
	TotalLosses    float64 `json:"totalLosses"`
	CorrectVotes   int     `json:"correctVotes"`
	TotalVotesCast int     `json:"totalVotesCast"`
}

// Leaderboard returns players with at least one completed game, richest
// first.
func Leaderboard(conn *gorm.DB, limit int) ([]LeaderboardEntry, error) {
	if conn == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var entries []LeaderboardEntry
	err := conn.Model(&PlayerRecord{}).
		Select("username", "balance", "games_played", "total_winnings",
			"total_losses", "correct_votes", "total_votes_cast").
		Where("games_played > 0").
		Order("balance DESC, total_winnings DESC, games_played DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetPlayerStats returns the stored record for one player, or nil when
// the player is unknown.
func GetPlayerStats(conn *gorm.DB, id string) (*PlayerRecord, error) {
	if conn == nil {
		return nil, nil
	}
	var record PlayerRecord
	err := conn.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
