package domain

import (
	"strings"
	"time"
)

var Platforms = []string{
	"Personal Computer (PC)",
	"Console",
	"Handheld Game Consoles",
	"Mobile Devices",
	"Virtual Reality (VR)",
}

var Genres = []string{
	"Real-Time Strategy",
	"Multiplayer Online Battle Arena",
	"Shooter",
	"Role Playing Game",
	"Sandbox",
	"Simulation",
	"Racing",
	"Sports",
	"Fighting",
	"Action-Adventure",
	"Survival Horror",
	"Puzzler",
	"Rhythm Game",
	"Interactive Movie",
	"Platformer",
}

// Game stores Platform and Genre as comma-joined members of Platforms and Genres.
type Game struct {
	GameID      uint       `gorm:"primaryKey;autoIncrement" json:"game_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Price       float64    `gorm:"not null" json:"price"`
	Platform    string     `gorm:"size:512;not null" json:"platform"`
	Genre       string     `gorm:"size:512;not null" json:"genre"`
	ReleaseDate string     `gorm:"size:10;not null" json:"release_date"`
	Image       *string    `gorm:"size:512;index" json:"image"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// SplitSet splits a comma-separated set and trims every member.
func SplitSet(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func JoinSet(raw string) string {
	return strings.Join(SplitSet(raw), ",")
}
