package controllers

import (
	"errors"
	"net/http"

	"courtsim/agents"
	"courtsim/cases"
	"courtsim/trial"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP statuses
func statusFor(err error) int {
	var (
		verr *cases.ValidationError
		terr *trial.InvalidTransitionError
		turn *trial.TurnError
		gerr *agents.GenerationError
	)
	switch {
	case errors.Is(err, cases.ErrNotFound),
		errors.Is(err, trial.ErrSessionNotFound),
		errors.Is(err, trial.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr),
		errors.Is(err, trial.ErrInvalidSnapshot),
		errors.Is(err, trial.ErrInvalidOption),
		errors.Is(err, trial.ErrUnknownWitness),
		errors.Is(err, trial.ErrUnknownEvidence):
		return http.StatusUnprocessableEntity
	case errors.As(err, &terr), errors.As(err, &turn), errors.Is(err, trial.ErrNothingToUndo),
		errors.Is(err, trial.ErrEvidenceNotPresented):
		return http.StatusConflict
	case errors.Is(err, trial.ErrConcurrencyViolation):
		return http.StatusTooManyRequests
	case errors.As(err, &gerr):
		if gerr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var verr *cases.ValidationError
	if errors.As(err, &verr) {
		body["problems"] = verr.Problems
	}
	c.JSON(statusFor(err), body)
}
