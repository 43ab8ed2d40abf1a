package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hailam/chessai/internal/engine"
	"github.com/hailam/chessai/internal/game"
	"github.com/hailam/chessai/internal/rules"
)

type createGameRequest struct {
	Difficulty string `json:"difficulty"`
}

type moveRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type capturedResponse struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type gameResponse struct {
	ID            string           `json:"id"`
	FEN           string           `json:"fen"`
	Board         [8][8]string     `json:"board"`
	Turn          string           `json:"turn"`
	Status        string           `json:"status"`
	Difficulty    string           `json:"difficulty"`
	Captured      capturedResponse `json:"captured"`
	Advantage     int              `json:"advantage"`
	AdvantageText string           `json:"advantage_text"`
	History       []string         `json:"history"`
	LastAIMove    string           `json:"last_ai_move,omitempty"`
	Evaluation    string           `json:"evaluation"`
}

// response renders the session. Call with sess.mu held.
func response(sess *session) (gameResponse, error) {
	g := sess.game

	san, err := g.SAN()
	if err != nil {
		return gameResponse{}, err
	}

	var board [8][8]string
	for row, cols := range g.Board() {
		for col, p := range cols {
			if p != nil {
				board[row][col] = p.String()
			}
		}
	}

	captured := g.Captured()
	resp := gameResponse{
		ID:            sess.id,
		FEN:           g.FEN(),
		Board:         board,
		Turn:          colorCode(g.Turn()),
		Status:        g.Status().String(),
		Difficulty:    g.Engine().Difficulty().String(),
		Captured:      capturedResponse{White: pieceNames(captured.White), Black: pieceNames(captured.Black)},
		Advantage:     g.MaterialAdvantage(),
		AdvantageText: game.FormatAdvantage(g.MaterialAdvantage()),
		History:       san,
		Evaluation:    engine.ScoreToString(g.Evaluate()),
	}
	if sess.lastAI != rules.NoMove {
		resp.LastAIMove = sess.lastAI.String()
	}
	return resp, nil
}

func colorCode(c rules.Color) string {
	if c == rules.White {
		return "w"
	}
	return "b"
}

func pieceNames(pieces []rules.Piece) []string {
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.String()
	}
	return out
}

func (s *Server) writeGame(c *gin.Context, status int, sess *session) {
	resp, err := response(sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, resp)
}

// withSession runs fn with the game's lock held, or answers 404.
func (s *Server) withSession(c *gin.Context, fn func(*session)) {
	sess, err := s.lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
}

func (s *Server) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eng := s.newEngine()
	if req.Difficulty != "" {
		d, err := engine.ParseDifficulty(req.Difficulty)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		eng.SetDifficulty(d)
	}

	sess := &session{id: newID(), game: game.New(eng)}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.persist(sess)
	s.writeGame(c, http.StatusCreated, sess)
}

func (s *Server) getGame(c *gin.Context) {
	s.withSession(c, func(sess *session) {
		s.writeGame(c, http.StatusOK, sess)
	})
}

func (s *Server) possibleMoves(c *gin.Context) {
	sq, err := rules.ParseSquare(c.Query("square"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.withSession(c, func(sess *session) {
		moves := sess.game.PossibleMoves(sq)
		targets := make([]string, len(moves))
		for i, to := range moves {
			targets[i] = to.String()
		}
		c.JSON(http.StatusOK, gin.H{"square": sq.String(), "moves": targets})
	})
}

// playMove applies the human's move and, unless that ended the game, the
// engine's reply.
func (s *Server) playMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := rules.ParseSquare(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := rules.ParseSquare(req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.withSession(c, func(sess *session) {
		_, reply, err := sess.game.Play(from, to)
		if err != nil {
			c.JSON(moveErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		sess.lastAI = reply.Move

		s.persist(sess)
		s.writeGame(c, http.StatusOK, sess)
	})
}

func moveErrorStatus(err error) int {
	switch {
	case errors.Is(err, rules.ErrIllegalMove):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrWrongTurn):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) undo(c *gin.Context) {
	s.withSession(c, func(sess *session) {
		if err := sess.game.Undo(); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, game.ErrNothingToUndo) {
				status = http.StatusConflict
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		sess.lastAI = rules.NoMove

		s.persist(sess)
		s.writeGame(c, http.StatusOK, sess)
	})
}

func (s *Server) deleteGame(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownGame.Error()})
		return
	}
	if s.store != nil {
		if err := s.store.DeleteGame(id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Status(http.StatusNoContent)
}
