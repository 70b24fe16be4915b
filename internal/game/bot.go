package game

import "math"

const (
	// DefaultDepth matches the strength the original deployment shipped with.
	DefaultDepth = 6

	// winScore dwarfs every heuristic value so that a forced win or loss
	// always dominates positional scoring.
	winScore = 1_000_000

	centerWeight = 6
)

// runWeights[n] scores a four-cell window holding n pieces of one side and
// no pieces of the other. The exact coefficients are tuning policy; the
// hard contract is zero-sum symmetry, kept by scoring both sides with the
// same table.
var runWeights = [WinLength + 1]int{0, 1, 10, 50, 10000}

// Bot picks moves with fixed-depth minimax and alpha-beta pruning. It keeps
// no state between calls; each search works on private clones of the game.
type Bot struct {
	Player Cell
	Depth  int
}

func NewBot(player Cell, depth int) *Bot {
	if depth < 0 {
		depth = 0
	}
	return &Bot{Player: player, Depth: depth}
}

func (b *Bot) ChooseMove(g *Game) (int, error) {
	return ChooseMove(g, b.Player, b.Depth)
}

// ChooseMove returns the strongest legal column for player, searching to
// the given depth. Columns are tried left to right and the first column
// reaching the best score wins ties. Depth 0 degenerates to the static
// heuristic over the immediate children. ErrNoLegalMoves is returned when
// the game is already finished or the board is full.
func ChooseMove(g *Game, player Cell, depth int) (int, error) {
	if g.Finished() {
		return -1, ErrNoLegalMoves
	}
	cols := g.LegalColumns()
	if len(cols) == 0 {
		return -1, ErrNoLegalMoves
	}

	childDepth := depth - 1
	if childDepth < 0 {
		childDepth = 0
	}

	bestCol := cols[0]
	bestScore := math.MinInt32
	alpha, beta := math.MinInt32, math.MaxInt32
	for _, col := range cols {
		child := g.Clone()
		if err := child.ApplyMove(col, player); err != nil {
			return -1, err
		}
		score := search(child, childDepth, alpha, beta, false, player, 1)
		if score > bestScore {
			bestScore = score
			bestCol = col
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestCol, nil
}

// search is plain minimax with alpha-beta bounds. Every branch gets its
// own clone, so nothing is undone and no state is shared across branches.
// ply counts moves from the root so faster wins score higher and slower
// losses score higher than immediate ones.
func search(g *Game, depth, alpha, beta int, maximizing bool, me Cell, ply int) int {
	if score, terminal := terminalScore(g, me, ply); terminal {
		return score
	}
	if depth == 0 {
		return Evaluate(g, me)
	}

	mover := me
	if !maximizing {
		mover = Opponent(me)
	}

	if maximizing {
		best := math.MinInt32
		for _, col := range g.LegalColumns() {
			child := g.Clone()
			if err := child.ApplyMove(col, mover); err != nil {
				continue
			}
			score := search(child, depth-1, alpha, beta, false, me, ply+1)
			if score > best {
				best = score
			}
			if score > alpha {
				alpha = score
			}
			if alpha >= beta {
				break
			}
		}
		return best
	}

	best := math.MaxInt32
	for _, col := range g.LegalColumns() {
		child := g.Clone()
		if err := child.ApplyMove(col, mover); err != nil {
			continue
		}
		score := search(child, depth-1, alpha, beta, true, me, ply+1)
		if score < best {
			best = score
		}
		if score < beta {
			beta = score
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func terminalScore(g *Game, me Cell, ply int) (int, bool) {
	switch {
	case g.Winner == me:
		return winScore - ply, true
	case g.Winner != CellEmpty:
		return -winScore + ply, true
	case g.Moves == Rows*Columns:
		return 0, true
	}
	return 0, false
}

// Evaluate scores a non-terminal position from me's perspective: every
// four-cell window on the board contributes runWeights of whichever side
// occupies it exclusively, and center-column occupancy earns a per-piece
// bonus since the center participates in the most winning lines. Swapping
// the two players' pieces negates the result.
func Evaluate(g *Game, me Cell) int {
	opp := Opponent(me)
	score := 0

	windows := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			for _, d := range windows {
				endR, endC := r+d[0]*(WinLength-1), c+d[1]*(WinLength-1)
				if endR < 0 || endR >= Rows || endC < 0 || endC >= Columns {
					continue
				}
				score += scoreWindow(g.Board, r, c, d[0], d[1], me, opp)
			}
		}
	}

	center := Columns / 2
	for r := 0; r < Rows; r++ {
		switch g.Board[r][center] {
		case me:
			score += centerWeight
		case opp:
			score -= centerWeight
		}
	}
	return score
}

func scoreWindow(b Board, row, col, dr, dc int, me, opp Cell) int {
	mine, theirs := 0, 0
	for i := 0; i < WinLength; i++ {
		switch b[row+dr*i][col+dc*i] {
		case me:
			mine++
		case opp:
			theirs++
		}
	}
	switch {
	case mine > 0 && theirs == 0:
		return runWeights[mine]
	case theirs > 0 && mine == 0:
		return -runWeights[theirs]
	}
	return 0
}
