package rank

// Leaderboard tracks cumulative round wins across the arena's lifetime,
// independent of any single round. It wraps a rankTable keyed by player id.
type Leaderboard struct {
	table *rankTable
}

// LeaderboardEntry is a ranked player in the leaderboard.
type LeaderboardEntry struct {
	PlayerID string
	Score    float64
	Rank     int
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{table: newRankTable()}
}

// UpdateScore sets a player's cumulative score.
func (lb *Leaderboard) UpdateScore(playerID string, score float64) {
	lb.table.insert(playerID, score)
}

// RemovePlayer removes a player from the leaderboard entirely.
func (lb *Leaderboard) RemovePlayer(playerID string) bool {
	return lb.table.remove(playerID)
}

// GetRank returns a player's rank (1-indexed, 1 = top), or 0 if absent.
func (lb *Leaderboard) GetRank(playerID string) int {
	return lb.table.getRank(playerID)
}

// GetScore returns a player's current score.
func (lb *Leaderboard) GetScore(playerID string) (float64, bool) {
	return lb.table.getScore(playerID)
}

// GetTop returns the top n players by score.
func (lb *Leaderboard) GetTop(n int) []LeaderboardEntry {
	entries := lb.table.getRange(1, n)
	result := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = LeaderboardEntry{PlayerID: e.Key, Score: e.Score, Rank: i + 1}
	}
	return result
}

// Length returns the number of players with a recorded score.
func (lb *Leaderboard) Length() int {
	return lb.table.length()
}
