package game

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Completed describes a finished game for persistence and analytics.
type Completed struct {
	ID        string
	Winner    Cell
	Status    Status
	Moves     int
	StartedAt time.Time
	EndedAt   time.Time
}

// MoveEvent is emitted after every applied move, human or bot.
type MoveEvent struct {
	GameID   string
	Column   int
	Player   Cell
	Snapshot Snapshot
}

// Hooks fan move and completion notifications out to the surrounding
// layers (watch streams, cache, storage, analytics). Callbacks run on
// their own goroutines and must not call back into the manager's locked
// methods for the same game.
type Hooks struct {
	OnMove   func(MoveEvent)
	OnFinish func(Completed)
}

type session struct {
	mu         sync.Mutex
	id         string
	game       *Game
	startedAt  time.Time
	lastMoveAt time.Time
}

// Manager owns every live game behind an explicit id-to-session map. The
// outer map lock only guards membership; each session carries its own
// mutex, so moves in different games never serialize against each other
// while two requests for the same game always do.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	botPlayer Cell
	botDepth  int
	idleAfter time.Duration
	hooks     Hooks
}

func NewManager(botDepth int, idleAfter time.Duration, hooks Hooks) *Manager {
	if botDepth < 0 {
		botDepth = 0
	}
	return &Manager{
		sessions:  make(map[string]*session),
		botPlayer: CellP2,
		botDepth:  botDepth,
		idleAfter: idleAfter,
		hooks:     hooks,
	}
}

// Create starts a fresh game under id, replacing any previous game with
// the same id. An empty id gets a server-generated one.
func (m *Manager) Create(id string) (string, Snapshot) {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	s := &session{
		id:         id,
		game:       NewGame(),
		startedAt:  now,
		lastMoveAt: now,
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s.game.Snapshot()
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	return s, nil
}

// Snapshot returns the current state of a game.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot(), nil
}

// HumanMove applies the human player's move. The human always owns the
// first slot.
func (m *Manager) HumanMove(id string, col int) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return m.play(s, col, Opponent(m.botPlayer))
}

// BotMove runs the search on a clone of the live board and applies the
// chosen column as a real move.
func (m *Manager) BotMove(id string) (int, Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return -1, Snapshot{}, err
	}

	s.mu.Lock()
	if s.game.Finished() {
		snap := s.game.Snapshot()
		s.mu.Unlock()
		return -1, snap, ErrGameFinished
	}
	if s.game.Turn != m.botPlayer {
		snap := s.game.Snapshot()
		s.mu.Unlock()
		return -1, snap, ErrInvalidTurn
	}
	scratch := s.game.Clone()
	s.mu.Unlock()

	// Search runs outside the session lock; the turn check above plus the
	// one-in-flight-request-per-game contract keep the board stable.
	col, err := ChooseMove(scratch, m.botPlayer, m.botDepth)
	if err != nil {
		return -1, scratch.Snapshot(), err
	}

	snap, err := m.play(s, col, m.botPlayer)
	if err != nil {
		return -1, snap, err
	}
	return col, snap, nil
}

func (m *Manager) play(s *session, col int, player Cell) (Snapshot, error) {
	s.mu.Lock()
	if err := s.game.ApplyMove(col, player); err != nil {
		snap := s.game.Snapshot()
		s.mu.Unlock()
		return snap, err
	}
	s.lastMoveAt = time.Now()
	snap := s.game.Snapshot()
	finished := s.game.Finished()
	done := Completed{
		ID:        s.id,
		Winner:    s.game.Winner,
		Status:    s.game.Status(),
		Moves:     s.game.Moves,
		StartedAt: s.startedAt,
		EndedAt:   s.lastMoveAt,
	}
	s.mu.Unlock()

	if m.hooks.OnMove != nil {
		go m.hooks.OnMove(MoveEvent{GameID: s.id, Column: col, Player: player, Snapshot: snap})
	}
	if finished && m.hooks.OnFinish != nil {
		go m.hooks.OnFinish(done)
	}
	return snap, nil
}

// Remove drops a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepIdle evicts sessions with no move inside the idle window. Finished
// games are evicted too; their results were already persisted via OnFinish.
func (m *Manager) SweepIdle() {
	if m.idleAfter <= 0 {
		return
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastMoveAt) > m.idleAfter
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			log.Printf("game %s evicted after idle timeout", id)
		}
	}
}
