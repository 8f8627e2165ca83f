package server

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/auth"
	"github.com/agenthands/meddesert/internal/core/graph"
	"github.com/agenthands/meddesert/internal/core/workflow"
	"github.com/agenthands/meddesert/internal/logging"
	"github.com/agenthands/meddesert/internal/store"
)

// Deps are the components the HTTP API is built on. Graph may be nil when no
// Memgraph instance is configured.
type Deps struct {
	Coordinator *workflow.Coordinator
	Sessions    *auth.Sessions
	Preferences *store.Preferences
	Audit       store.AuditStore
	Graph       *graph.ReportGraph
	Logger      logrus.FieldLogger
}

type Server struct {
	Deps
	steps *StepStream
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return &Server{
		Deps:  d,
		steps: NewStepStream(d.Coordinator.State, d.Logger),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger(s.Logger))

	r.GET("/healthz", s.Health)
	r.GET("/ws/steps", s.steps.Handle)

	api := r.Group("/api")
	api.POST("/session", s.Login)
	api.DELETE("/session", s.Logout)
	api.GET("/preferences/theme", s.GetTheme)
	api.PUT("/preferences/theme", s.PutTheme)

	api.GET("/state", s.GetState)
	api.PUT("/view", s.PutView)
	api.PUT("/location", s.PutLocation)

	protected := api.Group("", auth.RequireSession(s.Sessions))
	protected.POST("/workflow", s.StartWorkflow)
	protected.POST("/reports/:id/intervention", s.StartIntervention)

	api.POST("/query", s.Query)
	api.POST("/chat", s.Chat)

	api.GET("/reports", s.ListReports)
	api.GET("/reports/:id", s.GetReport)
	api.GET("/deserts", s.ListDeserts)
	api.GET("/clusters", s.ListClusters)
	api.GET("/map/markers", s.ListMarkers)
	api.GET("/audit", s.ListAudit)
	api.GET("/plan", s.GetPlan)
	api.GET("/plan.html", s.GetPlanHTML)

	api.GET("/graph/regions", s.GraphRegions)
	api.GET("/graph/gaps", s.GraphGaps)

	return r
}
