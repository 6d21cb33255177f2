package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // presentation layers may be served from anywhere
	},
}

// Dispatcher accepts raw input for the session goroutine.
type Dispatcher interface {
	Dispatch(ctx context.Context, in InputEvent) error
}

// viewer is one presentation client. Snapshots go through a one-slot
// mailbox drained by the viewer's own writer goroutine, so a slow client only
// ever misses intermediate frames.
type viewer struct {
	ID      string
	Conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending []byte
	signal  chan struct{}
	stop    chan struct{}
}

func newViewer(conn *websocket.Conn) *viewer {
	return &viewer{
		ID:     uuid.New().String(),
		Conn:   conn,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

func (v *viewer) write(jsonData []byte) error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return v.Conn.WriteMessage(websocket.TextMessage, jsonData)
}

// offer replaces any snapshot the writer has not picked up yet.
func (v *viewer) offer(jsonData []byte) {
	v.mu.Lock()
	v.pending = jsonData
	v.mu.Unlock()
	select {
	case v.signal <- struct{}{}:
	default:
	}
}

func (v *viewer) writePump() {
	for {
		select {
		case <-v.stop:
			return
		case <-v.signal:
		}
		v.mu.Lock()
		jsonData := v.pending
		v.pending = nil
		v.mu.Unlock()
		if jsonData == nil {
			continue
		}
		if err := v.write(jsonData); err != nil {
			log.Printf("Error sending snapshot to viewer %s: %v\n", v.ID, err)
			v.Conn.Close()
			return
		}
	}
}

// Bridge connects presentation clients to the session: it forwards their
// input and pushes every snapshot back to them.
type Bridge struct {
	Identity   Identity
	Dispatcher Dispatcher

	mu         sync.RWMutex
	viewers    map[string]*viewer
	latest     *RenderSnapshot
	latestJSON []byte
}

func NewBridge(id Identity) *Bridge {
	return &Bridge{Identity: id, viewers: make(map[string]*viewer)}
}

// Render implements Presenter. It never touches a socket.
func (b *Bridge) Render(snap RenderSnapshot) {
	jsonData, err := json.Marshal(Message{Type: "snapshot", Data: snap})
	if err != nil {
		log.Printf("Error marshaling snapshot: %v\n", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = &snap
	b.latestJSON = jsonData
	for _, v := range b.viewers {
		v.offer(jsonData)
	}
}

func (b *Bridge) Latest() (RenderSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.latest == nil {
		return RenderSnapshot{}, false
	}
	return *b.latest, true
}

func (b *Bridge) wsHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("upgrade error:", err)
		return
	}
	defer conn.Close()

	v := newViewer(conn)
	b.mu.Lock()
	b.viewers[v.ID] = v
	if b.latestJSON != nil {
		v.offer(b.latestJSON)
	}
	log.Printf("🔌 Viewer connected: %s (Total viewers: %d)\n", v.ID, len(b.viewers))
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.viewers, v.ID)
		log.Printf("❌ Viewer disconnected: %s (Total viewers: %d)\n", v.ID, len(b.viewers))
		b.mu.Unlock()
		close(v.stop)
	}()

	connJSON, _ := json.Marshal(Message{
		Type: "connected",
		Data: map[string]interface{}{
			"viewerId": v.ID,
			"userId":   b.Identity.UserID,
			"username": b.Identity.Username,
		},
	})
	if err := v.write(connJSON); err != nil {
		return
	}
	// the hello goes out before any snapshot
	go v.writePump()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Printf("read error: %v\n", err)
			return
		}

		in, err := decodeInput(msg)
		if err != nil {
			log.Printf("unmarshal error: %v\n", err)
			continue
		}
		if b.Dispatcher == nil {
			continue
		}
		if err := b.Dispatcher.Dispatch(c.Request.Context(), in); err != nil {
			return
		}
	}
}

type inputData struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Touches   []Point `json:"touches"`
	Remaining int     `json:"remaining"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

var ErrUnknownInput = errors.New("unknown input")

func decodeInput(raw []byte) (InputEvent, error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return InputEvent{}, err
	}
	var d inputData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return InputEvent{}, fmt.Errorf("%s: %w", msg.Type, err)
		}
	}
	kind := InputKind(msg.Type)
	switch kind {
	case InputPointerDown, InputPointerMove, InputPointerUp, InputPointerLeave,
		InputTouchStart, InputTouchMove, InputTouchEnd:
	case InputResize:
		if d.Width <= 0 || d.Height <= 0 {
			return InputEvent{}, fmt.Errorf("resize to %vx%v", d.Width, d.Height)
		}
	default:
		return InputEvent{}, fmt.Errorf("%w: %q", ErrUnknownInput, msg.Type)
	}
	return InputEvent{
		Kind:      kind,
		Point:     Point{X: d.X, Y: d.Y},
		Touches:   d.Touches,
		Remaining: d.Remaining,
		Width:     d.Width,
		Height:    d.Height,
	}, nil
}

func (b *Bridge) snapshotHandler(c *gin.Context) {
	snap, ok := b.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Loading game..."})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (b *Bridge) identityHandler(c *gin.Context) {
	c.JSON(http.StatusOK, b.Identity)
}

// statusLogger logs phase and status changes as they happen.
type statusLogger struct {
	phase  ConnPhase
	status string
	notice int
}

func (l *statusLogger) Render(snap RenderSnapshot) {
	if snap.Phase != l.phase {
		log.Printf("🎮 Game %s is %s\n", snap.Code, snap.Phase)
		l.phase = snap.Phase
	}
	if snap.Status != "" && snap.Status != l.status {
		log.Printf("🎮 %s\n", snap.Status)
		l.status = snap.Status
	}
	if snap.Notice != nil && snap.Notice.Seq != l.notice {
		log.Printf("⚠️ %s\n", snap.Notice.Message)
		l.notice = snap.Notice.Seq
	}
}

func setupRouter(b *Bridge) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.LoggerWithWriter(os.Stdout))

	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/ws", b.wsHandler)
	router.GET("/snapshot", b.snapshotHandler)
	router.GET("/identity", b.identityHandler)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func main() {
	cfg, err := LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	userID, err := IdentityStore{Path: cfg.IdentityFile}.Load()
	if err != nil {
		log.Fatal("Failed to load identity: ", err)
	}
	id := Identity{UserID: userID, Username: cfg.Username}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dial := func(ctx context.Context) (Conn, error) {
		return DialServer(ctx, cfg.ServerURL)
	}

	code, err := EnterGame(ctx, cfg, id, dial)
	if err != nil {
		log.Fatal("Failed to enter game: ", err)
	}

	bridge := NewBridge(id)
	session := NewSession(SessionConfig{
		Code:              code,
		UserID:            id.UserID,
		Username:          id.Username,
		NoticeTTL:         cfg.NoticeTTL,
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		Verbose:           cfg.Verbose,
	}, dial, bridge, &statusLogger{})
	bridge.Dispatcher = session

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: setupRouter(bridge)}
	go func() {
		log.Printf("🚀 UI bridge listening on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start bridge:", err)
		}
	}()

	err = session.Run(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)

	switch {
	case errors.Is(err, ErrSessionEnded):
		log.Println("🏠 Session ended by server, back to the entry screen")
	case errors.Is(err, context.Canceled):
		log.Println("👋 Left game", code)
	case err != nil:
		log.Fatal("Session failed: ", err)
	}
}
