package handlers

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/controller"
	"github.com/vancomm/smartmines/internal/table"
)

var (
	ErrUnknownCommand = fmt.Errorf("unknown command")
	ErrInvalidArgs    = fmt.Errorf("invalid number of arguments")
)

type wsCommand string

const (
	wsGet       wsCommand = "g"
	wsNewGame   wsCommand = "n"
	wsUncover   wsCommand = "u"
	wsMark      wsCommand = "m"
	wsSmartMark wsCommand = "s"
	wsPreview   wsCommand = "p"
)

var commandNargs = map[wsCommand]int{
	wsGet:       0,
	wsNewGame:   0,
	wsUncover:   2,
	wsMark:      2,
	wsSmartMark: 2,
	wsPreview:   2,
}

type WSResponse struct {
	Changed *table.IndexList    `json:"changed"`
	Preview *table.IndexList    `json:"preview,omitempty"`
	Error   string              `json:"error,omitempty"`
	Game    controller.Snapshot `json:"game"`
}

func iterBySep(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func parseIndex(args []string) (table.Index, error) {
	row, err := strconv.ParseUint(args[0], 10, strconv.IntSize)
	if err != nil {
		return table.Index{}, fmt.Errorf("row must be a non-negative int")
	}
	column, err := strconv.ParseUint(args[1], 10, strconv.IntSize)
	if err != nil {
		return table.Index{}, fmt.Errorf("column must be a non-negative int")
	}
	return table.MakeIndex(uint(row), uint(column)), nil
}

func parseCommand(line string) (wsCommand, []string, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil, ErrUnknownCommand
	}
	cmd := wsCommand(parts[0])
	nargs, ok := commandNargs[cmd]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownCommand, parts[0])
	}
	if nargs != len(parts)-1 {
		return "", nil, fmt.Errorf("%w: %q takes %d", ErrInvalidArgs, cmd, nargs)
	}
	return cmd, parts[1:], nil
}

// execute runs one command line against c and adds its outcome to resp.
func execute(ctx context.Context, c *controller.Controller, line string, resp *WSResponse) error {
	cmd, args, err := parseCommand(line)
	if err != nil {
		return err
	}

	var i table.Index
	if len(args) == 2 {
		if i, err = parseIndex(args); err != nil {
			return err
		}
	}

	var changed *table.IndexList
	switch cmd {
	case wsGet:
		return nil
	case wsNewGame:
		c.NewGame()
		return nil
	case wsUncover:
		changed, err = c.UncoverAt(ctx, i)
	case wsMark:
		changed, err = c.MarkAt(i)
	case wsSmartMark:
		changed, err = c.SmartMarkAt(i)
	case wsPreview:
		resp.Preview, err = c.UncoverableAt(i)
		return err
	}
	if err != nil {
		return err
	}
	for v := range changed.All() {
		resp.Changed.Append(v)
	}
	return nil
}

// runCommandLoop answers every text message with the combined outcome of
// its lines. Lines after the one that ends the game are ignored. The session
// is looked up again for every message, which keeps it from going idle; the
// loop ends once it is gone.
func runCommandLoop(ctx context.Context, conn *websocket.Conn, session func() (*controller.Controller, error), log logrus.FieldLogger) error {
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			return nil
		}

		text := strings.TrimSpace(string(message))
		log.Debug("\t> " + text)

		c, err := session()
		if err != nil {
			if werr := conn.WriteJSON(WSResponse{Changed: table.NewIndexList(), Error: err.Error()}); werr != nil {
				return fmt.Errorf("unable to write json: %w", werr)
			}
			return err
		}

		resp := WSResponse{Changed: table.NewIndexList()}
		for _, line := range iterBySep(text, "\n") {
			over := c.State().Over()
			if err := execute(ctx, c, line, &resp); err != nil {
				resp.Error = err.Error()
				break
			}
			if !over && c.State().Over() {
				break
			}
		}
		resp.Game = c.Snapshot()

		if err := conn.WriteJSON(resp); err != nil {
			return fmt.Errorf("unable to write json: %w", err)
		}
	}
}

func (h *GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.controllerFor(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		h.log.WithError(err).Error("unable to upgrade")
		return
	}
	defer conn.Close()

	log := h.log.WithField("session_id", id)
	log.Debug("established ws connection")

	session := func() (*controller.Controller, error) { return h.sessions.Get(id) }
	err = runCommandLoop(r.Context(), conn, session, log)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
		log.Debug("session ended during ws connection")
	case err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		log.WithError(err).Warn("abnormal ws break")
	}
}
