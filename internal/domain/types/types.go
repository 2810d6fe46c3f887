// Package types contains common types used across the application
package types

// Entry represents one row of the hero ranking as served to clients.
type Entry struct {
	Rank        int     `json:"rank"`
	HeroID      int64   `json:"hero_id"`
	Rating      int     `json:"rating"`
	Games       int     `json:"games"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`
	WilsonScore float64 `json:"wilson_score"`
	Confidence  string  `json:"confidence"`
	Provisional bool    `json:"is_provisional"`
}
