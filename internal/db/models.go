package db

import (
	"time"

	"gorm.io/datatypes"
)

// PlayerRecord is the persistent account for a player across games.
type PlayerRecord struct {
	ID                  string    `gorm:"primaryKey;size:64"`
	Username            string    `gorm:"size:64;not null;index"`
	Balance             float64   `gorm:"not null"`
	GamesPlayed         int       `gorm:"not null;default:0"`
	TotalWinnings       float64   `gorm:"not null;default:0"`
	TotalLosses         float64   `gorm:"not null;default:0"`
	SuccessfulOriginals int       `gorm:"not null;default:0"`
	SuccessfulCopies    int       `gorm:"not null;default:0"`
	TotalOriginals      int       `gorm:"not null;default:0"`
	TotalCopies         int       `gorm:"not null;default:0"`
	TotalVotesCast      int       `gorm:"not null;default:0"`
	CorrectVotes        int       `gorm:"not null;default:0"`
	CreatedAt           time.Time `gorm:"not null"`
	LastPlayed          time.Time `gorm:"not null"`
}

// GameHistory records one player's outcome in one completed game.
type GameHistory struct {
	ID             uint           `gorm:"primaryKey"`
	RoomID         string         `gorm:"size:64;index;not null"`
	PlayerID       string         `gorm:"size:64;index;not null"`
	Username       string         `gorm:"size:64;not null"`
	BalanceBefore  float64        `gorm:"not null"`
	BalanceAfter   float64        `gorm:"not null"`
	Stake          float64        `gorm:"not null"`
	PointsEarned   int            `gorm:"not null;default:0"`
	OriginalsDrawn int            `gorm:"not null;default:0"`
	CopiesMade     int            `gorm:"not null;default:0"`
	VotesCast      int            `gorm:"not null;default:0"`
	CorrectVotes   int            `gorm:"not null;default:0"`
	Settlement     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null;index"`
}

type PromptLibrary struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"size:280;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
