package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Game represents one catalog title. Media fields (RomURL, ScreenshotURL,
// Screenshots) are opaque references into external file storage.
type Game struct {
	gorm.Model
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Year        int    `gorm:"not null"`
	Platform    string `gorm:"size:50;not null;index"`
	Featured    bool   `gorm:"not null;default:false;index"`

	RomURL        string `gorm:"size:512"`
	ScreenshotURL string `gorm:"size:512"`

	// Screenshots and Tags store JSON arrays of strings.
	Screenshots datatypes.JSON `gorm:"type:json"`
	Tags        datatypes.JSON `gorm:"type:json"`

	// Votes stores a JSON object mapping user id -> rating (1-5).
	// One vote per user, last write wins. Absent key means "has not voted".
	Votes datatypes.JSON `gorm:"type:json"`
}

func (g *Game) GetTags() []string        { return decodeStrings(g.Tags) }
func (g *Game) SetTags(tags []string)    { g.Tags = encodeJSON(tags) }
func (g *Game) GetScreenshots() []string { return decodeStrings(g.Screenshots) }
func (g *Game) SetScreenshots(s []string) {
	g.Screenshots = encodeJSON(s)
}

// GetVotes decodes the votes column. The result is never nil.
func (g *Game) GetVotes() map[string]int {
	votes := make(map[string]int)
	if len(g.Votes) > 0 {
		_ = json.Unmarshal(g.Votes, &votes)
	}
	return votes
}

func (g *Game) SetVotes(votes map[string]int) {
	g.Votes = encodeJSON(votes)
}

func decodeStrings(raw datatypes.JSON) []string {
	var arr []string
	if len(raw) == 0 {
		return arr
	}
	_ = json.Unmarshal(raw, &arr)
	return arr
}

func encodeJSON(v interface{}) datatypes.JSON {
	b, _ := json.Marshal(v)
	return b
}
