package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/smartmines/internal/config"
	"github.com/vancomm/smartmines/internal/controller"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/middleware"
	"github.com/vancomm/smartmines/internal/minefield"
	"github.com/vancomm/smartmines/internal/table"
)

const DefaultPlayer = "anonymous"

var (
	ErrUnauthorized = fmt.Errorf("missing or invalid session token")
	ErrForbidden    = fmt.Errorf("token belongs to another session")
	ErrUnknownGame  = fmt.Errorf("no such game")
)

// GameStore persists the records of the games in the collection.
type GameStore interface {
	SaveGame(g *game.Game) error
	DeleteGame(g *game.Game) error
}

type GameHandler struct {
	log       *logrus.Logger
	games     *game.Collection
	store     GameStore
	jwt       *config.JWT
	settings  config.GameConfig
	sessions  *Sessions
	upgrader  websocket.Upgrader
	fieldOpts []minefield.Option
	now       func() time.Time
}

type Option func(*GameHandler)

// WithMinefieldOptions is applied to every new minefield after the
// configured settings.
func WithMinefieldOptions(opts ...minefield.Option) Option {
	return func(h *GameHandler) { h.fieldOpts = append(h.fieldOpts, opts...) }
}

func WithClock(now func() time.Time) Option {
	return func(h *GameHandler) { h.now = now }
}

// WithOrigins restricts websocket connections to the given origins.
func WithOrigins(origins ...string) Option {
	return func(h *GameHandler) {
		if len(origins) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(origins, r.Header.Get("Origin"))
		}
	}
}

func NewGameHandler(
	log *logrus.Logger,
	games *game.Collection,
	store GameStore,
	j *config.JWT,
	settings config.GameConfig,
	sessions *Sessions,
	opts ...Option,
) *GameHandler {
	h := &GameHandler{
		log:      log,
		games:    games,
		store:    store,
		jwt:      j,
		settings: settings,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *GameHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/game", h.NewGame)
	mux.HandleFunc("GET /v1/game/{id}", h.Fetch)
	mux.HandleFunc("DELETE /v1/game/{id}", h.Close)
	mux.HandleFunc("POST /v1/game/{id}/uncover", h.Uncover)
	mux.HandleFunc("POST /v1/game/{id}/mark", h.Mark)
	mux.HandleFunc("POST /v1/game/{id}/smartmark", h.SmartMark)
	mux.HandleFunc("GET /v1/game/{id}/preview", h.Preview)
	mux.HandleFunc("POST /v1/game/{id}/new", h.Restart)
	mux.HandleFunc("POST /v1/game/{id}/select", h.Select)
	mux.HandleFunc("POST /v1/game/{id}/settings", h.Settings)
	mux.HandleFunc("GET /v1/game/{id}/ws", h.ConnectWS)
	mux.HandleFunc("GET /v1/games", h.ListGames)
	mux.HandleFunc("GET /v1/highscores", h.HighScores)
}

func (h *GameHandler) minefieldOptions() []minefield.Option {
	reveal := minefield.RevealDetonated
	if h.settings.RevealAllMines {
		reveal = minefield.RevealAllMines
	}
	return append([]minefield.Option{
		minefield.WithEasyStart(h.settings.EasyStart),
		minefield.WithSmartUncover(h.settings.SmartUncover),
		minefield.WithSmartMark(h.settings.SmartMark),
		minefield.WithQuestionMarks(h.settings.QuestionMarks),
		minefield.WithRevealPolicy(reveal),
	}, h.fieldOpts...)
}

// lookup finds or creates the game of a configuration. A custom game evicted
// from the collection is removed from the store.
func (h *GameHandler) lookup(size table.Size, mines uint, name string) (*game.Game, error) {
	g, evicted, err := h.games.Custom(size, mines, name)
	if err != nil {
		return nil, err
	}
	if evicted != nil {
		if err := h.store.DeleteGame(evicted); err != nil {
			h.log.WithError(err).WithField("game", evicted.Description()).Warn("unable to delete evicted game")
		}
	}
	if err := h.store.SaveGame(g); err != nil {
		h.log.WithError(err).WithField("game", g.Description()).Warn("unable to save game")
	}
	return g, nil
}

type NewGameResponse struct {
	SessionId string              `json:"session_id"`
	Token     string              `json:"token"`
	ExpiresAt int64               `json:"expires_at"`
	Game      controller.Snapshot `json:"game"`
}

func (h *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	params, err := decode[NewGameParams](r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	size, mines, err := params.Configuration()
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	player := params.Player
	if player == "" {
		player = DefaultPlayer
	}

	g, err := h.lookup(size, mines, params.Name)
	if err != nil {
		internalError(w, h.log, "unable to create game", err)
		return
	}
	c, err := controller.New(g,
		controller.WithPlayer(player),
		controller.WithObserver(&recordSaver{store: h.store, log: h.log}),
		controller.WithMinefieldOptions(h.minefieldOptions()...),
	)
	if err != nil {
		internalError(w, h.log, "unable to create controller", err)
		return
	}

	id := h.sessions.Add(c)
	now := h.now()
	expiresAt := now.Add(h.jwt.TokenLifetime())
	token, err := h.jwt.Sign(middleware.SessionClaims{
		SessionId: id.String(),
		Player:    player,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		h.sessions.Remove(id)
		internalError(w, h.log, "unable to sign session token", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"session_id": id,
		"player":     player,
		"game":       g.Description(),
	}).Info("session created")

	sendJSONOrLog(w, h.log, NewGameResponse{
		SessionId: id.String(),
		Token:     token,
		ExpiresAt: expiresAt.UnixMilli(),
		Game:      c.Snapshot(),
	})
}

// controllerFor returns the controller of the session in the path. The
// request must carry a token for that session.
func (h *GameHandler) controllerFor(w http.ResponseWriter, r *http.Request) (uuid.UUID, *controller.Controller, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, fmt.Errorf("invalid session id: %w", err))
		return uuid.Nil, nil, false
	}
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		sendError(w, h.log, http.StatusUnauthorized, ErrUnauthorized)
		return uuid.Nil, nil, false
	}
	if claims.SessionId != id.String() {
		sendError(w, h.log, http.StatusForbidden, ErrForbidden)
		return uuid.Nil, nil, false
	}
	c, err := h.sessions.Get(id)
	if err != nil {
		sendError(w, h.log, http.StatusNotFound, err)
		return uuid.Nil, nil, false
	}
	return id, c, true
}

func (h *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, h.log, c.Snapshot())
}

func (h *GameHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	h.sessions.Remove(id)
	h.log.WithField("session_id", id).Info("session closed")
	w.WriteHeader(http.StatusNoContent)
}

type MoveResponse struct {
	Changed *table.IndexList    `json:"changed"`
	Game    controller.Snapshot `json:"game"`
}

type move func(ctx context.Context, c *controller.Controller, i table.Index) (*table.IndexList, error)

func uncover(ctx context.Context, c *controller.Controller, i table.Index) (*table.IndexList, error) {
	return c.UncoverAt(ctx, i)
}

func mark(_ context.Context, c *controller.Controller, i table.Index) (*table.IndexList, error) {
	return c.MarkAt(i)
}

func smartMark(_ context.Context, c *controller.Controller, i table.Index) (*table.IndexList, error) {
	return c.SmartMarkAt(i)
}

func (h *GameHandler) handleMove(w http.ResponseWriter, r *http.Request, m move) {
	_, c, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	pos, err := decode[PositionParams](r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	changed, err := m(r.Context(), c, pos.Index())
	if errors.Is(err, minefield.ErrIndexOutOfRange) {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		internalError(w, h.log, "unable to make a move", err)
		return
	}
	sendJSONOrLog(w, h.log, MoveResponse{Changed: changed, Game: c.Snapshot()})
}

func (h *GameHandler) Uncover(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, uncover)
}

func (h *GameHandler) Mark(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, mark)
}

func (h *GameHandler) SmartMark(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, smartMark)
}

type PreviewResponse struct {
	Squares *table.IndexList `json:"squares"`
}

// Preview lists the squares an uncover at the position would reveal.
func (h *GameHandler) Preview(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	pos, err := decode[PositionParams](r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	squares, err := c.UncoverableAt(pos.Index())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	sendJSONOrLog(w, h.log, PreviewResponse{Squares: squares})
}

// Restart starts a fresh minefield of the same game.
func (h *GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	c.NewGame()
	sendJSONOrLog(w, h.log, c.Snapshot())
}

// Select switches the session to another configuration.
func (h *GameHandler) Select(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	params, err := decode[NewGameParams](r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	size, mines, err := params.Configuration()
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	g, err := h.lookup(size, mines, params.Name)
	if err != nil {
		internalError(w, h.log, "unable to create game", err)
		return
	}
	if err := c.Select(g); err != nil {
		internalError(w, h.log, "unable to select game", err)
		return
	}
	sendJSONOrLog(w, h.log, c.Snapshot())
}

func (h *GameHandler) Settings(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.controllerFor(w, r)
	if !ok {
		return
	}
	params, err := decode[SettingsParams](r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	changed := table.NewIndexList()
	merge := func(l *table.IndexList) {
		for i := range l.All() {
			changed.Append(i)
		}
	}
	if params.EasyStart != nil {
		merge(c.SetUsesEasyStart(*params.EasyStart))
	}
	if params.SmartUncover != nil {
		c.SetUsesSmartUncover(*params.SmartUncover)
	}
	if params.SmartMark != nil {
		c.SetUsesSmartMark(*params.SmartMark)
	}
	if params.QuestionMarks != nil {
		merge(c.SetUsesQuestionMarks(*params.QuestionMarks))
	}
	if params.RevealAllMines != nil {
		reveal := minefield.RevealDetonated
		if *params.RevealAllMines {
			reveal = minefield.RevealAllMines
		}
		c.SetRevealPolicy(reveal)
	}
	sendJSONOrLog(w, h.log, MoveResponse{Changed: changed, Game: c.Snapshot()})
}

type GameDTO struct {
	Description  string    `json:"description"`
	Name         string    `json:"name"`
	Rows         uint      `json:"rows"`
	Columns      uint      `json:"columns"`
	Mines        uint      `json:"mines"`
	Custom       bool      `json:"custom"`
	LastPlayed   time.Time `json:"last_played"`
	TimesStarted uint      `json:"times_started"`
	TimesWon     uint      `json:"times_won"`
	TimesLost    uint      `json:"times_lost"`
}

func NewGameDTO(g *game.Game) GameDTO {
	r := g.Record()
	return GameDTO{
		Description:  g.Description(),
		Name:         g.Name(),
		Rows:         r.Rows,
		Columns:      r.Columns,
		Mines:        r.Mines,
		Custom:       r.Custom,
		LastPlayed:   r.LastPlayed,
		TimesStarted: r.TimesStarted,
		TimesWon:     r.TimesWon,
		TimesLost:    r.TimesLost,
	}
}

func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games := h.games.Games()
	dtos := make([]GameDTO, len(games))
	for i, g := range games {
		dtos[i] = NewGameDTO(g)
	}
	sendJSONOrLog(w, h.log, dtos)
}

type HighScoreDTO struct {
	Rank      int    `json:"rank"`
	Player    string `json:"player"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Date      int64  `json:"date"`
}

type HighScoresResponse struct {
	Game   string         `json:"game"`
	Scores []HighScoreDTO `json:"scores"`
}

func (h *GameHandler) HighScores(w http.ResponseWriter, r *http.Request) {
	params, err := decode[GameParams](r.URL.Query())
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	size, mines, err := params.Configuration()
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}
	g := h.games.Find(size, mines)
	if g == nil {
		sendError(w, h.log, http.StatusNotFound, fmt.Errorf("%w: %s", ErrUnknownGame, game.Describe(size, mines)))
		return
	}
	var scores []game.Score
	if hs := g.HighScores(); hs != nil {
		scores, err = hs.List(r.Context())
		if err != nil {
			internalError(w, h.log, "unable to list high scores", err)
			return
		}
	}
	resp := HighScoresResponse{
		Game:   g.Description(),
		Scores: make([]HighScoreDTO, len(scores)),
	}
	for i, s := range scores {
		resp.Scores[i] = HighScoreDTO{
			Rank:      i + 1,
			Player:    s.Player,
			ElapsedMs: s.Elapsed.Milliseconds(),
			Date:      s.Date.UnixMilli(),
		}
	}
	sendJSONOrLog(w, h.log, resp)
}
