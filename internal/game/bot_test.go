package game

import (
	"errors"
	"math"
	"testing"
)

// parsePosition builds a game from a textual grid, rows top to bottom,
// '.' empty, '1' and '2' for the players. The side to move is derived
// from the piece counts (player one moves first).
func parsePosition(t *testing.T, rows ...string) *Game {
	t.Helper()
	if len(rows) != Rows {
		t.Fatalf("position needs %d rows, got %d", Rows, len(rows))
	}
	g := NewGame()
	p1, p2 := 0, 0
	for r, row := range rows {
		if len(row) != Columns {
			t.Fatalf("row %d needs %d cells, got %d", r, Columns, len(row))
		}
		for c, ch := range row {
			switch ch {
			case '.':
			case '1':
				g.Board[r][c] = CellP1
				p1++
			case '2':
				g.Board[r][c] = CellP2
				p2++
			default:
				t.Fatalf("bad cell %q at (%d,%d)", ch, r, c)
			}
		}
	}
	g.Moves = p1 + p2
	switch {
	case p1 == p2:
		g.Turn = CellP1
	case p1 == p2+1:
		g.Turn = CellP2
	default:
		t.Fatalf("unreachable piece counts: %d vs %d", p1, p2)
	}
	return g
}

func TestChooseMoveTakesImmediateWin(t *testing.T) {
	g := parsePosition(t,
		".......",
		".......",
		".......",
		".......",
		"111....",
		"222...1",
	)
	for _, depth := range []int{1, 2, 4, 6} {
		col, err := ChooseMove(g.Clone(), CellP2, depth)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if col != 3 {
			t.Fatalf("depth %d: expected winning column 3, got %d", depth, col)
		}
	}
}

func TestChooseMoveBlocksOpponentWin(t *testing.T) {
	g := parsePosition(t,
		".......",
		".......",
		".......",
		".......",
		".......",
		"111..22",
	)
	for _, depth := range []int{2, 4, 6} {
		col, err := ChooseMove(g.Clone(), CellP2, depth)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if col != 3 {
			t.Fatalf("depth %d: expected blocking column 3, got %d", depth, col)
		}
	}
}

func TestChooseMoveOpensAtCenter(t *testing.T) {
	col, err := ChooseMove(NewGame(), CellP1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if col != 3 {
		t.Fatalf("expected center opening, got column %d", col)
	}
}

func TestChooseMoveDepthZeroStillMoves(t *testing.T) {
	col, err := ChooseMove(NewGame(), CellP1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if col != 3 {
		t.Fatalf("static heuristic should still favor the center, got %d", col)
	}
}

func TestChooseMoveOnTerminalBoard(t *testing.T) {
	won := NewGame()
	playMoves(t, won, 0, 6, 0, 6, 0, 6, 0)
	if _, err := ChooseMove(won, CellP2, 4); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("expected ErrNoLegalMoves on won game, got %v", err)
	}
	if _, err := ChooseMove(drawBoard(), CellP1, 4); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("expected ErrNoLegalMoves on drawn game, got %v", err)
	}
}

func TestChooseMoveSkipsFullColumns(t *testing.T) {
	g := NewGame()
	// Fill columns 0 and 1 completely with alternating pieces.
	playMoves(t, g, 0, 1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0)
	for _, depth := range []int{0, 1, 3} {
		col, err := ChooseMove(g.Clone(), g.Turn, depth)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if col < 2 || col >= Columns {
			t.Fatalf("depth %d: chose unplayable column %d", depth, col)
		}
	}
}

func TestEvaluateIsZeroSum(t *testing.T) {
	positions := [][]int{
		{},
		{3},
		{3, 3, 2, 4},
		{0, 1, 2, 3, 4, 5},
		{2, 3, 3, 4, 4, 5, 0, 0},
	}
	for _, moves := range positions {
		g := NewGame()
		playMoves(t, g, moves...)
		p1 := Evaluate(g, CellP1)
		p2 := Evaluate(g, CellP2)
		if p1 != -p2 {
			t.Fatalf("moves %v: evaluation not zero-sum: %d vs %d", moves, p1, p2)
		}
	}
}

func TestEvaluateFavorsOpenThree(t *testing.T) {
	three := parsePosition(t,
		".......",
		".......",
		".......",
		".......",
		".......",
		".111.22",
	)
	two := parsePosition(t,
		".......",
		".......",
		".......",
		".......",
		".......",
		".11..2.",
	)
	if Evaluate(three, CellP1) <= Evaluate(two, CellP1) {
		t.Fatal("three in a line should outscore two in a line")
	}
}

// plainSearch is minimax without pruning, kept as the reference the
// alpha-beta implementation must agree with on the chosen column.
func plainSearch(g *Game, depth int, maximizing bool, me Cell, ply int) int {
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
			if score := plainSearch(child, depth-1, false, me, ply+1); score > best {
				best = score
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
		if score := plainSearch(child, depth-1, true, me, ply+1); score < best {
			best = score
		}
	}
	return best
}

func plainChooseMove(g *Game, player Cell, depth int) int {
	cols := g.LegalColumns()
	childDepth := depth - 1
	if childDepth < 0 {
		childDepth = 0
	}
	bestCol := cols[0]
	bestScore := math.MinInt32
	for _, col := range cols {
		child := g.Clone()
		if err := child.ApplyMove(col, player); err != nil {
			continue
		}
		if score := plainSearch(child, childDepth, false, player, 1); score > bestScore {
			bestScore = score
			bestCol = col
		}
	}
	return bestCol
}

func TestPruningDoesNotChangeChosenColumn(t *testing.T) {
	positions := [][]int{
		{},
		{3},
		{3, 3},
		{3, 2, 4, 3},
		{0, 1, 2, 3, 4, 5},
		{3, 3, 2, 4, 1, 5, 2},
		{2, 3, 3, 4, 4, 5, 0, 0},
		{0, 0, 1, 1, 2, 3, 5, 6},
	}
	for _, moves := range positions {
		g := NewGame()
		playMoves(t, g, moves...)
		for depth := 1; depth <= 4; depth++ {
			pruned, err := ChooseMove(g.Clone(), g.Turn, depth)
			if err != nil {
				t.Fatalf("moves %v depth %d: %v", moves, depth, err)
			}
			plain := plainChooseMove(g.Clone(), g.Turn, depth)
			if pruned != plain {
				t.Fatalf("moves %v depth %d: alpha-beta chose %d, plain minimax chose %d",
					moves, depth, pruned, plain)
			}
		}
	}
}

func TestBotWrapper(t *testing.T) {
	bot := NewBot(CellP2, 2)
	g := NewGame()
	playMoves(t, g, 3)
	col, err := bot.ChooseMove(g)
	if err != nil {
		t.Fatal(err)
	}
	if col < 0 || col >= Columns {
		t.Fatalf("bot returned out-of-range column %d", col)
	}
}
