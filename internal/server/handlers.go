package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/verdict/internal/model"
	"github.com/ppiankov/verdict/internal/session"
)

type claimRequest struct {
	Claim string `json:"claim" binding:"required,max=2000"`
}

type questionRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

type intentResponse struct {
	Accepted bool     `json:"accepted"`
	Session  Snapshot `json:"session"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.registry.Len()})
}

func (s *Server) createSession(c *gin.Context) {
	sess := s.factory()
	id := s.registry.Put(sess)
	c.JSON(http.StatusCreated, newSnapshot(id, sess.Snapshot()))
}

func (s *Server) getSession(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSnapshot(id, sess.Snapshot()))
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.registry.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) submitClaim(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if model.IsBlank(req.Claim) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claim is blank"})
		return
	}

	// The call outlives this request; its deadline comes from the backend client
	accepted := sess.SubmitClaim(context.WithoutCancel(c.Request.Context()), req.Claim)
	s.respondIntent(c, id, sess, accepted)
}

func (s *Server) askQuestion(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}

	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if model.IsBlank(req.Question) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is blank"})
		return
	}

	accepted := sess.AskQuestion(context.WithoutCancel(c.Request.Context()), req.Question)
	s.respondIntent(c, id, sess, accepted)
}

func (s *Server) respondIntent(c *gin.Context, id string, sess *session.Session, accepted bool) {
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusConflict
	}
	c.JSON(status, intentResponse{Accepted: accepted, Session: newSnapshot(id, sess.Snapshot())})
}

// streamEvents sends the current snapshot, then one event per transition.
// Snapshots that arrive faster than the client reads are coalesced to the latest.
func (s *Server) streamEvents(c *gin.Context) {
	id, sess, ok := s.lookup(c)
	if !ok {
		return
	}

	var (
		mu     sync.Mutex
		latest session.State
		notify = make(chan struct{}, 1)
	)
	unsubscribe := sess.Subscribe(func(state session.State) {
		mu.Lock()
		latest = state
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("snapshot", newSnapshot(id, sess.Snapshot()))
	c.Writer.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-notify:
			mu.Lock()
			state := latest
			mu.Unlock()
			if !s.registry.Touch(id) {
				return false
			}
			c.SSEvent("snapshot", newSnapshot(id, state))
			return true
		case <-ticker.C:
			// An open stream keeps its session alive; a deleted session ends it
			if !s.registry.Touch(id) {
				return false
			}
			c.SSEvent("ping", gin.H{"time": time.Now().UTC().Format(time.RFC3339)})
			return true
		}
	})
}

func (s *Server) lookup(c *gin.Context) (string, *session.Session, bool) {
	id := c.Param("id")
	sess, ok := s.registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return "", nil, false
	}
	return id, sess, true
}
