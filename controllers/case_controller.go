package controllers

import (
	"context"
	"net/http"

	"courtsim/cases"
	"courtsim/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CaseSink persists user-authored cases beyond the process, e.g. cases.MongoStore
type CaseSink interface {
	Insert(ctx context.Context, c models.Case) error
}

// CaseController serves the case catalog and user-authored cases
type CaseController struct {
	Cases *cases.Overlay
	Sink  CaseSink
	Log   *zap.SugaredLogger
}

func (cc *CaseController) ListCases(c *gin.Context) {
	list, err := cc.Cases.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": list})
}

func (cc *CaseController) GetCase(c *gin.Context) {
	found, err := cc.Cases.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (cc *CaseController) CreateCustomCase(c *gin.Context) {
	var fields cases.CustomCaseFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	custom, err := cases.ValidateCustomCase(fields)
	if err != nil {
		respondError(c, err)
		return
	}
	if cc.Sink != nil {
		if err := cc.Sink.Insert(c.Request.Context(), *custom); err != nil {
			cc.Log.Errorw("failed to persist custom case", "case", custom.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save case"})
			return
		}
	}
	cc.Cases.Add(*custom)
	cc.Log.Infow("custom case created", "case", custom.ID, "title", custom.Title)
	c.JSON(http.StatusCreated, custom)
}
