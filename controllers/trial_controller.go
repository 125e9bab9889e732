package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"courtsim/internal/voice"
	"courtsim/models"
	"courtsim/trial"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxClipBytes = 10 << 20

// TrialController exposes trial sessions over HTTP
type TrialController struct {
	Manager     *trial.Manager
	Snapshots   trial.SnapshotStore
	Transcriber voice.Transcriber
	Log         *zap.SugaredLogger
}

type advanceRequest struct {
	Force  bool   `json:"force"`
	Reason string `json:"reason"`
}

type turnRequest struct {
	Role string `json:"role"`
}

type recordRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type examineRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (tc *TrialController) session(c *gin.Context) (*trial.Session, bool) {
	s, err := tc.Manager.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func (tc *TrialController) CreateSession(c *gin.Context) {
	var req trial.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	s, err := tc.Manager.Start(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.GetState())
}

func (tc *TrialController) GetSession(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.GetState())
}

func (tc *TrialController) Advance(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	var req advanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
			return
		}
	}
	var err error
	if req.Force {
		_, err = s.ForceAdvance(req.Reason)
	} else {
		_, err = s.Advance()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.GetState())
}

// RequestTurn asks an agent for the pending turn. Without a role the expected speaker answers.
func (tc *TrialController) RequestTurn(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	var req turnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
			return
		}
	}

	var (
		entry models.TranscriptEntry
		err   error
	)
	if req.Role == "" {
		entry, err = s.RequestNextTurn(c.Request.Context())
	} else {
		role, known := models.ParseRole(req.Role)
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + req.Role})
			return
		}
		entry, err = s.RequestAgentTurn(c.Request.Context(), role)
	}
	if err != nil {
		tc.Log.Warnw("agent turn failed", "session", s.ID(), "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "state": s.GetState()})
}

func (tc *TrialController) RecordTurn(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	role, known := models.ParseRole(req.Role)
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + req.Role})
		return
	}
	entry, err := s.RecordTurn(role, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "state": s.GetState()})
}

// TranscribeTurn converts an uploaded audio clip to text. Nothing is recorded;
// the client submits the text through RecordTurn.
func (tc *TrialController) TranscribeTurn(c *gin.Context) {
	if _, ok := tc.session(c); !ok {
		return
	}
	if tc.Transcriber == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Voice input is not configured"})
		return
	}
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing audio file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxClipBytes+1))
	if err != nil || len(data) > maxClipBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Audio clip is unreadable or too large"})
		return
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "audio/") {
		mime = "audio/webm"
	}
	text, ok := tc.Transcriber.Transcribe(c.Request.Context(), voice.Clip{MIMEType: mime, Data: data})
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not understand the recording"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (tc *TrialController) ExamineWitness(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	var req examineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if err := s.ExamineWitness(*req.Index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.GetState())
}

type authenticateRequest struct {
	Criteria []string `json:"criteria"`
	By       string   `json:"by"`
}

// AuthenticateEvidence checks a presented exhibit against its admissibility criteria
func (tc *TrialController) AuthenticateEvidence(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	res, err := s.AuthenticateEvidence(c.Param("evidenceId"), req.Criteria, req.By)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// EvidenceReport summarises the exhibits presented in a session
func (tc *TrialController) EvidenceReport(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.EvidenceReport())
}

func (tc *TrialController) Undo(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	if err := s.Undo(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.GetState())
}

// SaveSnapshot stores the session's current snapshot
func (tc *TrialController) SaveSnapshot(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if err := tc.Snapshots.Save(c.Request.Context(), s.ID(), snap); err != nil {
		tc.Log.Errorw("failed to save snapshot", "session", s.ID(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Snapshot saved", "takenAt": snap.TakenAt, "transcriptCount": len(snap.Transcript)})
}

// LoadSnapshot restores the last saved snapshot into the session
func (tc *TrialController) LoadSnapshot(c *gin.Context) {
	s, ok := tc.session(c)
	if !ok {
		return
	}
	snap, err := tc.Snapshots.Load(c.Request.Context(), s.ID())
	if err != nil {
		if !errors.Is(err, trial.ErrSnapshotNotFound) {
			tc.Log.Errorw("failed to load snapshot", "session", s.ID(), "error", err)
		}
		respondError(c, err)
		return
	}
	if err := s.Restore(snap); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.GetState())
}

func (tc *TrialController) Restart(c *gin.Context) {
	s, err := tc.Manager.Restart(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.GetState())
}

func (tc *TrialController) EndSession(c *gin.Context) {
	if err := tc.Manager.End(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}
