package game

import "errors"

const (
	Columns   = 7
	Rows      = 6
	WinLength = 4
)

type Cell int

const (
	CellEmpty Cell = 0
	CellP1    Cell = 1
	CellP2    Cell = 2
)

// Opponent returns the other player.
func Opponent(p Cell) Cell {
	if p == CellP1 {
		return CellP2
	}
	return CellP1
}

var (
	ErrColumnFull   = errors.New("column is full")
	ErrInvalidTurn  = errors.New("not your turn")
	ErrInvalidCol   = errors.New("invalid column")
	ErrGameFinished = errors.New("game already finished")
	ErrNoLegalMoves = errors.New("no legal moves")
	ErrGameNotFound = errors.New("game not found")
)

// Board holds the grid in row-major order with row 0 at the top, so a
// column is open exactly when its top cell is empty.
type Board [Rows][Columns]Cell

// Game is the authoritative state of one match. Winner and Moves are the
// only stored facts beyond the grid; Status is derived from them so it
// cannot drift out of sync.
type Game struct {
	Board  Board
	Turn   Cell
	Winner Cell
	Moves  int
}

type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusDraw   Status = "draw"
)

func NewGame() *Game {
	return &Game{Turn: CellP1}
}

func (g *Game) Status() Status {
	if g.Winner != CellEmpty {
		return StatusWon
	}
	if g.Moves == Rows*Columns {
		return StatusDraw
	}
	return StatusActive
}

func (g *Game) Finished() bool {
	return g.Status() != StatusActive
}

// LegalColumns returns the open columns left to right. It is empty once
// the game is finished.
func (g *Game) LegalColumns() []int {
	if g.Finished() {
		return nil
	}
	cols := make([]int, 0, Columns)
	for c := 0; c < Columns; c++ {
		if g.Board[0][c] == CellEmpty {
			cols = append(cols, c)
		}
	}
	return cols
}

// ApplyMove drops player's piece into col. All validation happens before
// any mutation, so a rejected move leaves the game untouched.
func (g *Game) ApplyMove(col int, player Cell) error {
	if col < 0 || col >= Columns {
		return ErrInvalidCol
	}
	if g.Finished() {
		return ErrGameFinished
	}
	if player != g.Turn {
		return ErrInvalidTurn
	}
	row := -1
	for r := Rows - 1; r >= 0; r-- {
		if g.Board[r][col] == CellEmpty {
			row = r
			break
		}
	}
	if row < 0 {
		return ErrColumnFull
	}

	g.Board[row][col] = player
	g.Moves++
	if winsAt(g.Board, row, col, player) {
		g.Winner = player
		return nil
	}
	if g.Moves < Rows*Columns {
		g.Turn = Opponent(player)
	}
	return nil
}

// winsAt checks only the lines through the just-placed cell: the four
// axes, counted outward in both directions with bounds checks.
func winsAt(b Board, row, col int, player Cell) bool {
	directions := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range directions {
		count := 1
		count += countRun(b, row, col, d[0], d[1], player)
		count += countRun(b, row, col, -d[0], -d[1], player)
		if count >= WinLength {
			return true
		}
	}
	return false
}

func countRun(b Board, row, col, dr, dc int, player Cell) int {
	count := 0
	r, c := row+dr, col+dc
	for r >= 0 && r < Rows && c >= 0 && c < Columns && b[r][c] == player {
		count++
		r += dr
		c += dc
	}
	return count
}

// Clone returns an independent copy for the search to mutate freely.
func (g *Game) Clone() *Game {
	dup := *g
	return &dup
}

// Snapshot is the wire form of a game; row 0 of the grid is the top row.
type Snapshot struct {
	Board         [][]int `json:"board"`
	CurrentPlayer int     `json:"current_player"`
	GameOver      bool    `json:"game_over"`
	Winner        int     `json:"winner"`
}

func (g *Game) Snapshot() Snapshot {
	grid := make([][]int, Rows)
	for r := 0; r < Rows; r++ {
		grid[r] = make([]int, Columns)
		for c := 0; c < Columns; c++ {
			grid[r][c] = int(g.Board[r][c])
		}
	}
	return Snapshot{
		Board:         grid,
		CurrentPlayer: int(g.Turn),
		GameOver:      g.Finished(),
		Winner:        int(g.Winner),
	}
}
