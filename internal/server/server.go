package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/hydraxl/Connect4/internal/analytics"
	"github.com/hydraxl/Connect4/internal/cache"
	"github.com/hydraxl/Connect4/internal/game"
	"github.com/hydraxl/Connect4/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Config struct {
	BotDepth   int
	IdleWindow time.Duration
	Store      storage.Store
	Cache      *cache.SnapshotCache
	Analytics  *analytics.Producer
}

type Server struct {
	router    *gin.Engine
	manager   *game.Manager
	store     storage.Store
	cache     *cache.SnapshotCache
	analytics *analytics.Producer

	statsMu sync.Mutex
	stats   storage.Stats

	watchMu  sync.RWMutex
	watchers map[string]map[*wsClient]struct{}
}

func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	s := &Server{
		router:    router,
		store:     cfg.Store,
		cache:     cfg.Cache,
		analytics: cfg.Analytics,
		watchers:  make(map[string]map[*wsClient]struct{}),
	}
	s.manager = game.NewManager(cfg.BotDepth, cfg.IdleWindow, game.Hooks{
		OnMove:   s.onMove,
		OnFinish: s.onFinish,
	})

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/api/new_game", s.handleNewGame)
	router.POST("/api/move", s.handleMove)
	router.POST("/api/bot_move", s.handleBotMove)
	router.GET("/api/game_state", s.handleGameState)
	router.GET("/api/stats", s.handleStats)
	router.GET("/ws/watch", s.handleWatch)
	return s
}

func (s *Server) Run(addr string) error {
	go s.sweeper()
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) sweeper() {
	ticker := time.NewTicker(30 * time.Second)
	for range ticker.C {
		s.manager.SweepIdle()
	}
}

type moveRequest struct {
	GameID string `json:"game_id"`
	Col    *int   `json:"col"`
}

func envelope(snap game.Snapshot) gin.H {
	return gin.H{
		"success":        true,
		"board":          snap.Board,
		"current_player": snap.CurrentPlayer,
		"game_over":      snap.GameOver,
		"winner":         snap.Winner,
	}
}

func fail(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, game.ErrGameNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (s *Server) handleNewGame(c *gin.Context) {
	var req moveRequest
	// Body is optional: an empty request starts an anonymous game.
	_ = c.ShouldBindJSON(&req)
	id, snap := s.manager.Create(req.GameID)
	resp := envelope(snap)
	resp["game_id"] = id
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Col == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid column"})
		return
	}
	snap, err := s.manager.HumanMove(req.GameID, *req.Col)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope(snap))
}

func (s *Server) handleBotMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
		return
	}
	col, snap, err := s.manager.BotMove(req.GameID)
	if err != nil {
		fail(c, err)
		return
	}
	resp := envelope(snap)
	resp["col"] = col
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGameState(c *gin.Context) {
	snap, err := s.manager.Snapshot(c.Query("game_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope(snap))
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()
	if s.store != nil {
		stats, err := s.store.GetStats(ctx)
		if err == nil {
			c.JSON(http.StatusOK, stats)
			return
		}
		log.Printf("stats db error: %v", err)
	}
	// fallback in-memory
	s.statsMu.Lock()
	stats := s.stats
	s.statsMu.Unlock()
	c.JSON(http.StatusOK, stats)
}

// onMove fans an applied move out to watchers, the snapshot cache, and
// analytics. It runs on its own goroutine.
func (s *Server) onMove(ev game.MoveEvent) {
	s.broadcast(ev.GameID, gin.H{
		"type":           "state",
		"game_id":        ev.GameID,
		"col":            ev.Column,
		"player":         int(ev.Player),
		"board":          ev.Snapshot.Board,
		"current_player": ev.Snapshot.CurrentPlayer,
		"game_over":      ev.Snapshot.GameOver,
		"winner":         ev.Snapshot.Winner,
	})
	s.cache.SetSnapshot(context.Background(), ev.GameID, ev.Snapshot)
	s.analytics.Publish(context.Background(), analytics.EventMovePlayed, map[string]any{
		"gameId": ev.GameID,
		"col":    ev.Column,
		"player": int(ev.Player),
		"over":   ev.Snapshot.GameOver,
	})
}

func (s *Server) onFinish(done game.Completed) {
	s.statsMu.Lock()
	switch done.Winner {
	case game.CellP1:
		s.stats.Player1Wins++
	case game.CellP2:
		s.stats.Player2Wins++
	default:
		s.stats.Draws++
	}
	s.stats.Total++
	s.statsMu.Unlock()

	if s.store != nil {
		_ = s.store.SaveGame(context.Background(), storage.CompletedGame{
			ID:        done.ID,
			Winner:    int(done.Winner),
			Status:    string(done.Status),
			Moves:     done.Moves,
			StartedAt: done.StartedAt,
			EndedAt:   done.EndedAt,
		})
	}
	s.analytics.Publish(context.Background(), analytics.EventGameFinished, map[string]any{
		"gameId":   done.ID,
		"winner":   int(done.Winner),
		"status":   string(done.Status),
		"moves":    done.Moves,
		"duration": done.EndedAt.Sub(done.StartedAt).Seconds(),
	})
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatch upgrades to a read-only spectator stream: the current
// snapshot on connect, then a push after every applied move.
func (s *Server) handleWatch(c *gin.Context) {
	gameID := c.Query("game_id")
	snap, err := s.manager.Snapshot(gameID)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, 8)}
	s.addWatcher(gameID, client)

	go client.writePump()
	client.sendJSON(gin.H{
		"type":           "state",
		"game_id":        gameID,
		"board":          snap.Board,
		"current_player": snap.CurrentPlayer,
		"game_over":      snap.GameOver,
		"winner":         snap.Winner,
	})
	go client.readPump(s, gameID)
}

func (s *Server) addWatcher(gameID string, client *wsClient) {
	s.watchMu.Lock()
	if s.watchers[gameID] == nil {
		s.watchers[gameID] = make(map[*wsClient]struct{})
	}
	s.watchers[gameID][client] = struct{}{}
	s.watchMu.Unlock()
}

func (s *Server) removeWatcher(gameID string, client *wsClient) {
	s.watchMu.Lock()
	if set, ok := s.watchers[gameID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(s.watchers, gameID)
		}
	}
	close(client.send)
	s.watchMu.Unlock()
	client.conn.Close()
}

// broadcast sends under the read lock; sendJSON never blocks, and holding
// the lock keeps removeWatcher from closing a channel mid-send.
func (s *Server) broadcast(gameID string, payload gin.H) {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	for client := range s.watchers[gameID] {
		client.sendJSON(payload)
	}
}

func (c *wsClient) writePump() {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

// readPump only waits for the peer to go away; watchers never send.
func (c *wsClient) readPump(s *Server, gameID string) {
	defer s.removeWatcher(gameID, c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) sendJSON(v gin.H) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
