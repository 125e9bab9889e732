package routes

import (
	"courtsim/controllers"
	"courtsim/websocket"

	"github.com/gin-gonic/gin"
)

// SetupCaseRoutes sets up the case catalog routes
func SetupCaseRoutes(router *gin.RouterGroup, cc *controllers.CaseController) {
	cases := router.Group("/cases")
	{
		cases.GET("", cc.ListCases)
		cases.GET("/:id", cc.GetCase)
		cases.POST("/custom", cc.CreateCustomCase)
	}
}

// SetupTrialRoutes sets up the trial session routes. generation guards the
// endpoints that call the text model.
func SetupTrialRoutes(router *gin.RouterGroup, tc *controllers.TrialController, generation ...gin.HandlerFunc) {
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, generation...), h)
	}
	sessions := router.Group("/sessions")
	{
		sessions.POST("", tc.CreateSession)
		sessions.GET("/:id", tc.GetSession)
		sessions.DELETE("/:id", tc.EndSession)
		sessions.POST("/:id/advance", tc.Advance)
		sessions.POST("/:id/turn", guarded(tc.RequestTurn)...)
		sessions.POST("/:id/record", tc.RecordTurn)
		sessions.POST("/:id/transcribe", guarded(tc.TranscribeTurn)...)
		sessions.POST("/:id/witness", tc.ExamineWitness)
		sessions.GET("/:id/evidence", tc.EvidenceReport)
		sessions.POST("/:id/evidence/:evidenceId/authenticate", tc.AuthenticateEvidence)
		sessions.POST("/:id/undo", tc.Undo)
		sessions.POST("/:id/save", tc.SaveSnapshot)
		sessions.POST("/:id/load", tc.LoadSnapshot)
		sessions.POST("/:id/restart", tc.Restart)
	}
}

// SetupStreamRoutes sets up the observer websocket
func SetupStreamRoutes(router *gin.RouterGroup, ts *websocket.TrialStream) {
	router.GET("/sessions/:id/ws", ts.Handle)
}
