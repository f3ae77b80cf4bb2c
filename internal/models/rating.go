package models

// Rating helpers are display-pure: they read the votes mapping and never
// touch the database. Submitting a vote is the repository's job, and the
// caller is responsible for re-reading the game afterwards.

// AverageRating returns the arithmetic mean of all votes on a game,
// or 0 when nobody has voted.
func AverageRating(g *Game) float64 {
	votes := g.GetVotes()
	if len(votes) == 0 {
		return 0
	}
	sum := 0
	for _, v := range votes {
		sum += v
	}
	return float64(sum) / float64(len(votes))
}

// RatingCount returns the number of distinct voters.
func RatingCount(g *Game) int {
	return len(g.GetVotes())
}

// UserRating returns the rating a user gave a game, or 0 if they have
// not voted.
func UserRating(g *Game, userID string) int {
	return g.GetVotes()[userID]
}
