package domain

// ScoreBoard tracks wins and the cumulative tally of finished matches.
type ScoreBoard struct {
	Player1     int
	Player2     int
	GamesPlayed int
}

// TallyRollover is the value GamesPlayed is never allowed to reach.
const TallyRollover = 1985

// Record books a finished match. winner is NoPlayer for a draw.
func (s *ScoreBoard) Record(winner Player) {
	switch winner {
	case Player1:
		s.Player1++
	case Player2:
		s.Player2++
	}
	next := s.GamesPlayed + 1
	if next >= TallyRollover {
		next = 0
	}
	s.GamesPlayed = next
}
