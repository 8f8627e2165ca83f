package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/meddesert/internal/auth"
	"github.com/agenthands/meddesert/internal/core/catalog"
	"github.com/agenthands/meddesert/internal/core/community"
	"github.com/agenthands/meddesert/internal/core/geo"
	"github.com/agenthands/meddesert/internal/core/model"
	"github.com/agenthands/meddesert/internal/core/workflow"
	"github.com/agenthands/meddesert/internal/mapview"
	"github.com/agenthands/meddesert/internal/markdown"
	"github.com/agenthands/meddesert/internal/store"
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Login(c *gin.Context) {
	token, op, err := s.Sessions.Login(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to open session")
		return
	}
	s.audit(c.Request.Context(), "Operator session opened", op.Email, model.AuditInfo)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": op})
}

func (s *Server) Logout(c *gin.Context) {
	token := auth.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	op, err := s.Sessions.Authenticate(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, err, "Failed to close session")
		return
	}
	if err := s.Sessions.Logout(c.Request.Context(), token); err != nil {
		s.respondError(c, err, "Failed to close session")
		return
	}
	s.audit(c.Request.Context(), "Operator session closed", op.Email, model.AuditInfo)
	c.Status(http.StatusNoContent)
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (s *Server) GetTheme(c *gin.Context) {
	theme, err := s.Preferences.Theme(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to read preferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (s *Server) PutTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := s.Preferences.SetTheme(c.Request.Context(), req.Theme); err != nil {
		s.respondError(c, err, "Failed to save preferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}

func (s *Server) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, s.Coordinator.State.Snapshot())
}

type viewRequest struct {
	View model.ViewState `json:"view" binding:"required"`
}

func (s *Server) PutView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.View.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid view"})
		return
	}
	s.Coordinator.State.SetView(req.View)
	c.JSON(http.StatusOK, gin.H{"activeView": req.View})
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// PutLocation records the operator location. A body without coordinates clears it.
func (s *Server) PutLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Lat == nil && req.Lng == nil {
		s.Coordinator.State.SetLocation(nil)
		c.JSON(http.StatusOK, gin.H{"userLocation": nil})
		return
	}
	if req.Lat == nil || req.Lng == nil || !validLatLng(*req.Lat, *req.Lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}
	loc := &model.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	s.Coordinator.State.SetLocation(loc)
	c.JSON(http.StatusOK, gin.H{"userLocation": loc})
}

func validLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// detached keeps request values but outlives the client; a dropped connection
// must not abort an in-flight model call.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func wantsWait(c *gin.Context) bool {
	wait, _ := strconv.ParseBool(c.Query("wait"))
	return wait
}

func (s *Server) StartWorkflow(c *gin.Context) {
	op, _ := auth.CurrentOperator(c)

	if wantsWait(c) {
		err := s.Coordinator.RunAgentic(detached(c))
		if errors.Is(err, workflow.ErrBusy) {
			s.respondError(c, err, "")
			return
		}
		s.auditRun("Agentic workflow", op.Email, err)
		if err != nil {
			s.respondError(c, err, "Workflow failed")
			return
		}
		c.JSON(http.StatusOK, s.Coordinator.State.Snapshot())
		return
	}

	done, err := s.Coordinator.StartAgentic(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to start workflow")
		return
	}
	go s.awaitRun(done, "Agentic workflow", op.Email)
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) StartIntervention(c *gin.Context) {
	op, _ := auth.CurrentOperator(c)
	id := c.Param("id")

	if wantsWait(c) {
		err := s.Coordinator.RunIntervention(detached(c), id)
		if errors.Is(err, workflow.ErrBusy) || errors.Is(err, workflow.ErrReportNotFound) {
			s.respondError(c, err, "")
			return
		}
		s.auditRun("Intervention for "+id, op.Email, err)
		if err != nil {
			s.respondError(c, err, "Intervention failed")
			return
		}
		c.JSON(http.StatusOK, s.Coordinator.State.Snapshot())
		return
	}

	done, err := s.Coordinator.StartIntervention(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, "Failed to start intervention")
		return
	}
	go s.awaitRun(done, "Intervention for "+id, op.Email)
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) awaitRun(done <-chan error, name, user string) {
	s.auditRun(name, user, <-done)
}

func (s *Server) auditRun(name, user string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err != nil {
		s.audit(ctx, name+" failed", user, model.AuditWarning)
		return
	}
	s.audit(ctx, name+" completed", user, model.AuditSuccess)
}

func (s *Server) audit(ctx context.Context, event, user string, status model.AuditStatus) {
	if s.Audit == nil {
		return
	}
	entry := store.NewAuditEntry(uuid.New().String(), event, user, status, time.Now())
	if err := s.Audit.Append(ctx, entry); err != nil {
		s.Logger.WithError(err).Warn("Failed to append audit entry")
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := s.Coordinator.RunQuery(detached(c), req.Query); err != nil {
		s.respondError(c, err, "Query failed")
		return
	}
	snap := s.Coordinator.State.Snapshot()
	c.JSON(http.StatusOK, gin.H{"plan": snap.Plan, "groundingLinks": snap.Grounding})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	res, err := s.Coordinator.Chat(detached(c), req.Message)
	if err != nil {
		s.respondError(c, err, "Chat failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": res.Text, "groundingLinks": res.Grounding})
}

// ListReports serves the knowledge grid: text and region filters plus an optional
// radius around lat/lng.
func (s *Server) ListReports(c *gin.Context) {
	all := s.Coordinator.State.Reports()
	reports := catalog.FilterReports(all, c.Query("search"), c.Query("region"))

	if c.Query("lat") != "" || c.Query("lng") != "" || c.Query("radius_km") != "" {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		radius, errRadius := strconv.ParseFloat(c.Query("radius_km"), 64)
		if errLat != nil || errLng != nil || errRadius != nil || radius < 0 || !validLatLng(lat, lng) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng and radius_km must be given together"})
			return
		}
		reports = geo.WithinRadius(reports, model.LatLng{Lat: lat, Lng: lng}, radius)
	}
	if reports == nil {
		reports = []model.HospitalReport{}
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "regions": catalog.Regions(all)})
}

func (s *Server) GetReport(c *gin.Context) {
	r, ok := s.Coordinator.State.Report(c.Param("id"))
	if !ok {
		s.respondError(c, workflow.ErrReportNotFound, "")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) ListDeserts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deserts": s.Coordinator.State.Deserts()})
}

// ListClusters groups the current facilities by shared gaps.
func (s *Server) ListClusters(c *gin.Context) {
	clusters := community.NewLabelPropagationDetector().Detect(s.Coordinator.State.Reports())
	if clusters == nil {
		clusters = []community.Cluster{}
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

func (s *Server) ListMarkers(c *gin.Context) {
	markers := mapview.Markers(s.Coordinator.State.Deserts(), c.Query("selected"))
	c.JSON(http.StatusOK, gin.H{"markers": markers})
}

func (s *Server) ListAudit(c *gin.Context) {
	logs, err := s.Audit.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.respondError(c, err, "Failed to read audit log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetPlan returns the current plan with its line blocks for the document view.
func (s *Server) GetPlan(c *gin.Context) {
	snap := s.Coordinator.State.Snapshot()
	blocks := []markdown.Block{}
	if snap.Plan != nil {
		blocks = markdown.Render(*snap.Plan)
	}
	c.JSON(http.StatusOK, gin.H{
		"plan":           snap.Plan,
		"blocks":         blocks,
		"groundingLinks": snap.Grounding,
		"isThinking":     snap.IsThinking,
	})
}

func (s *Server) GetPlanHTML(c *gin.Context) {
	snap := s.Coordinator.State.Snapshot()
	if snap.Plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan has been generated"})
		return
	}
	html, err := markdown.HTML(*snap.Plan)
	if err != nil {
		s.respondError(c, err, "Failed to render plan")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) GraphRegions(c *gin.Context) {
	if s.Graph == nil {
		s.respondError(c, errGraphUnavailable, "")
		return
	}
	regions, err := s.Graph.RegionGaps(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to query report graph")
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

func (s *Server) GraphGaps(c *gin.Context) {
	if s.Graph == nil {
		s.respondError(c, errGraphUnavailable, "")
		return
	}
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	matches, err := s.Graph.FacilitiesWithGap(c.Request.Context(), term)
	if err != nil {
		s.respondError(c, err, "Failed to query report graph")
		return
	}
	c.JSON(http.StatusOK, gin.H{"facilities": matches})
}
