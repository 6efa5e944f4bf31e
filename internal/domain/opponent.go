package domain

import "math/rand"

var corners = [4]int{0, 2, 6, 8}

// ChooseMove picks the cell the opponent heuristic plays for self against
// other: win, block, center, random corner, random cell. ok is false when
// the board has no empty cell.
func ChooseMove(b Board, self, other Symbol, rng *rand.Rand) (idx int, ok bool) {
	free := b.EmptyCells()
	if len(free) == 0 {
		return -1, false
	}
	if i, found := completingMove(b, free, self); found {
		return i, true
	}
	if i, found := completingMove(b, free, other); found {
		return i, true
	}
	if b[4] == Empty {
		return 4, true
	}
	var open []int
	for _, c := range corners {
		if b[c] == Empty {
			open = append(open, c)
		}
	}
	if len(open) > 0 {
		return open[rng.Intn(len(open))], true
	}
	return free[rng.Intn(len(free))], true
}

// completingMove returns the first free cell that gives s three in a row.
func completingMove(b Board, free []int, s Symbol) (int, bool) {
	for _, i := range free {
		probe := b
		probe[i] = s
		if w, res := Evaluate(probe); res == Won && w == s {
			return i, true
		}
	}
	return -1, false
}
