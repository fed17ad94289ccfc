// Babybox Baby Names Game
//
// A trivia game about how popular baby names were over the years. Every
// round asks either which name was the most popular for boys or girls in a
// given year, or in which year a given name was the most popular, with three
// options to choose from.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - Everyone connected to a game ID shares one question and one score,
//   so a game can be shown on a TV and played from phones
// - Prompts and feedback are localized per connection (English, Spanish)
// - A late or duplicate answer to an earlier question is rejected
// - After an answer, clients wait --advance-delay and ask for the next question
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/babybox/games/babynames"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                  // "next", "answer", "restart"
	QuestionID string `json:"question_id,omitempty"` // answer / next
	Option     *int   `json:"option,omitempty"`      // answer
}

// SessionInfoMessage is sent immediately on connect.
type SessionInfoMessage struct {
	Type         string            `json:"type"` // "session_info"
	GameID       string            `json:"game_id"`
	Language     string            `json:"language"`
	AdvanceDelay int64             `json:"advance_delay_ms"`
	Labels       map[string]string `json:"labels"`
}

// QuestionMessage carries everything needed to render a question, but not
// which option is correct.
type QuestionMessage struct {
	Type    string   `json:"type"` // "question"
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Prompt  string   `json:"prompt"`
	Year    int      `json:"year,omitempty"`
	Gender  string   `json:"gender,omitempty"`
	Name    string   `json:"name,omitempty"`
	Options []string `json:"options"`
}

// ResultMessage reveals the answer to everyone once someone has picked.
type ResultMessage struct {
	Type       string          `json:"type"` // "result"
	QuestionID string          `json:"question_id"`
	Correct    bool            `json:"correct"`
	Selected   int             `json:"selected"`
	Answer     int             `json:"answer"`
	Counts     []int           `json:"counts"`
	Message    string          `json:"message"`
	Score      babynames.Score `json:"score"`
	ScoreText  string          `json:"score_text"`
}

type ScoreMessage struct {
	Type      string          `json:"type"` // "score"
	Score     babynames.Score `json:"score"`
	ScoreText string          `json:"score_text"`
}

// SimpleMessage is for generic notifications ("answer_rejected", "fatal").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn    *websocket.Conn
	send    chan any
	lang    language.Tag
	printer *message.Printer
}

type clientRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id string

	session *babynames.Session
	clients map[*Client]bool

	// The most recently answered question, kept so late joiners see the
	// result and so "next" only advances past the question it names.
	lastQuestion *babynames.Question
	lastResult   *babynames.Result

	register chan *Client
	unreg    chan *Client
	requests chan clientRequest
	done     chan struct{}
	stop     sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
}

func newHub(gameID string, session *babynames.Session) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		session:    session,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan clientRequest),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

// run owns the session: every question, answer and restart for this game is
// handled here, one at a time.
func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.handleRegister(cfg, c)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			h.handleRequest(cfg, req)
		}
	}
}

func (h *Hub) handleRegister(cfg *Config, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		close(c.send)
		_ = c.conn.Close()

		return
	default:
	}

	h.lastActive = time.Now()
	h.clients[c] = true

	h.sendLocked(c, SessionInfoMessage{
		Type:         "session_info",
		GameID:       h.id,
		Language:     c.lang.String(),
		AdvanceDelay: cfg.advanceDelay.Milliseconds(),
		Labels:       clientLabels(c.printer),
	})
	h.sendLocked(c, c.scoreMessage(h.session.Score()))

	if h.session.Err() != nil {
		h.sendLocked(c, c.fatalMessage())

		return
	}

	if q, ok := h.session.Current(); ok {
		h.sendLocked(c, c.questionMessage(q))

		return
	}

	if h.lastResult != nil {
		h.sendLocked(c, c.resultMessage(*h.lastQuestion, *h.lastResult))

		return
	}

	h.nextQuestionLocked(cfg)
}

func (h *Hub) handleRequest(cfg *Config, req clientRequest) {
	c := req.client
	msg := req.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch msg.Type {
	case "answer":
		if msg.Option == nil {
			h.sendLocked(c, c.rejectedMessage())

			return
		}

		q, res, err := h.session.Answer(msg.QuestionID, *msg.Option)
		if err != nil {
			logf(cfg, "GAMES: Rejected answer to %q in %s: %v", msg.QuestionID, h.id, err)
			h.sendLocked(c, c.rejectedMessage())

			return
		}

		h.lastQuestion = &q
		h.lastResult = &res

		logf(cfg, "GAMES: Answered %s question %s in %s (correct: %t, score %d/%d)",
			q.Kind, q.ID, h.id, res.Correct, res.Score.Correct, res.Score.Total)

		for client := range h.clients {
			h.sendLocked(client, client.resultMessage(q, res))
		}

	case "next":
		if _, ok := h.session.Current(); ok {
			return
		}

		// Every client asks after its own delay; only the first request for
		// the answered question advances the game.
		if h.lastQuestion != nil && msg.QuestionID != h.lastQuestion.ID {
			return
		}

		h.nextQuestionLocked(cfg)

	case "restart":
		h.session.Restart()
		h.lastQuestion = nil
		h.lastResult = nil

		logf(cfg, "GAMES: Restarted %s", h.id)

		for client := range h.clients {
			h.sendLocked(client, client.scoreMessage(h.session.Score()))
		}

		h.nextQuestionLocked(cfg)
	}
}

// nextQuestionLocked generates a question and shows it to everyone. If the
// dataset cannot produce one, clients are told once and generation stops
// until the game is restarted.
func (h *Hub) nextQuestionLocked(cfg *Config) {
	if h.session.Err() != nil {
		return
	}

	q, err := h.session.Next()
	if err != nil {
		logf(cfg, "GAMES: No question available in %s: %v", h.id, err)

		for client := range h.clients {
			h.sendLocked(client, client.fatalMessage())
		}

		return
	}

	for client := range h.clients {
		h.sendLocked(client, client.questionMessage(q))
	}
}

// sendLocked assumes h.mu is already held.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// closeAll disconnects all clients of this hub and stops it (used by reaper).
func (h *Hub) closeAll() {
	h.stop.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

func (c *Client) questionMessage(q babynames.Question) QuestionMessage {
	return QuestionMessage{
		Type:    "question",
		ID:      q.ID,
		Kind:    string(q.Kind),
		Prompt:  questionPrompt(c.printer, q),
		Year:    q.Year,
		Gender:  string(q.Gender),
		Name:    q.Name,
		Options: q.Labels(),
	}
}

func (c *Client) resultMessage(q babynames.Question, res babynames.Result) ResultMessage {
	return ResultMessage{
		Type:       "result",
		QuestionID: q.ID,
		Correct:    res.Correct,
		Selected:   res.Selected,
		Answer:     res.Answer,
		Counts:     q.Counts(),
		Message:    resultText(c.printer, q, res),
		Score:      res.Score,
		ScoreText:  scoreText(c.printer, res.Score),
	}
}

func (c *Client) scoreMessage(s babynames.Score) ScoreMessage {
	return ScoreMessage{
		Type:      "score",
		Score:     s,
		ScoreText: scoreText(c.printer, s),
	}
}

func (c *Client) rejectedMessage() SimpleMessage {
	return SimpleMessage{
		Type:    "answer_rejected",
		Message: c.printer.Sprintf("That answer was not accepted."),
	}
}

func (c *Client) fatalMessage() SimpleMessage {
	return SimpleMessage{
		Type:    "fatal",
		Message: c.printer.Sprintf("There is not enough data to build a question. Please reload the page."),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration

	dataset *babynames.Dataset
	logger  *zap.Logger
}

func newGameManager(idleTimeout time.Duration, dataset *babynames.Dataset, logger *zap.Logger) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		dataset:     dataset,
		logger:      logger,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	logger := gm.logger.With(zap.String("game", gameID))
	gen := babynames.NewGenerator(gm.dataset, cfg.generator(), babynames.NewRand(), logger)

	hub := newHub(gameID, babynames.NewSession(gen))
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	const max = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, 8)
		buf := make([]byte, 16)

		for len(out) < cap(out) {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}

			for _, b := range buf {
				if b <= max && len(out) < cap(out) {
					out = append(out, letters[int(b)%len(letters)])
				}
			}
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			idle := len(hub.clients) == 0
			hub.mu.RUnlock()

			if idle && last.Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		lang := clientLanguage(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		// Only connected clients create games.
		hub := gm.getHub(cfg, gameID)

		client := &Client{
			conn:    conn,
			send:    make(chan any, 8),
			lang:    lang,
			printer: message.NewPrinter(lang),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s joined %s (%s)", realIP(r), gameID, lang)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "answer", "next", "restart":
			select {
			case h.requests <- clientRequest{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/babynames/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "missing client", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err
		}
	}
}

// serveDatasetSummary describes the loaded dataset as JSON.
func serveDatasetSummary(cfg *Config, dataset *babynames.Dataset, errs chan<- error) http.HandlerFunc {
	summary := dataset.Summary()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)
		// Cross-origin readers are gated by the CORS middleware instead.
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")

		if err := json.NewEncoder(w).Encode(summary); err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)

		target := cfg.prefix + path + "/" + gameID
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
	}
}

// registerBabyNamesGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
//   - /dataset.json          → summary of the loaded dataset, readable
//     cross-origin by --cors-origin
func registerBabyNamesGame(cfg *Config, path string, mux *httprouter.Router, dataset *babynames.Dataset, logger *zap.Logger, errs chan<- error) *GameManager {
	gm := newGameManager(cfg.sessionTimeout, dataset, logger)

	// Root path → redirect to new random game
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	// Per-game client view (HTML)
	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg, errs))

	// Shared assets (no gameid in route)
	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))

	summary := withCORS(cfg, serveDatasetSummary(cfg, dataset, errs))
	mux.Handler(http.MethodGet, cfg.prefix+"/dataset.json", summary)
	mux.Handler(http.MethodOptions, cfg.prefix+"/dataset.json", summary)

	// Per-game websocket
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	// Per-game QR code
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}
