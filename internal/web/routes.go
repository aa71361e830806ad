package web

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/static"
)

func (s *Server) setupRoutes() {
	d := s.deps
	ticksHandler := handlers.NewTicksHandler(d.Orchestrator, d.Events, s.config.Web.AllowedOrigins)
	livenessHandler := handlers.NewLivenessHandler(d.Orchestrator, d.Source, d.Events)
	identitiesHandler := handlers.NewIdentitiesHandler(d.Orchestrator, d.Registry, d.Events)
	attendanceHandler := handlers.NewAttendanceHandler(d.Ledger, d.Clock, d.Events)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	if d.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// Detection ticks
		r.Post("/ticks", ticksHandler.Post)
		r.Get("/events", ticksHandler.Events)
		r.Get("/ws", ticksHandler.WebSocket)

		// Liveness
		r.Get("/liveness", livenessHandler.Get)
		r.Post("/liveness", livenessHandler.Start)
		r.Delete("/liveness", livenessHandler.Cancel)
		r.Post("/liveness/bypass", livenessHandler.Bypass)

		// Identities
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Enroll)
		r.Delete("/identities", identitiesHandler.Clear)
		r.Delete("/identities/{id}", identitiesHandler.Delete)

		// Attendance
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/attendance/export", attendanceHandler.Export)
		r.Delete("/attendance", attendanceHandler.ClearAll)
		r.Delete("/attendance/today", attendanceHandler.ClearToday)
		r.Delete("/attendance/{id}", attendanceHandler.Delete)
	})

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
}

// serveSPA serves the embedded kiosk page. Paths that match no embedded file
// fall back to index.html.
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	if !static.HasDist() {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, placeholderPage)
		return
	}

	fsys := static.GetFileSystem()
	if f, err := fsys.Open(r.URL.Path); err == nil {
		f.Close()
	} else {
		r = r.Clone(r.Context())
		r.URL.Path = "/"
	}
	http.FileServer(fsys).ServeHTTP(w, r)
}

const placeholderPage = `<!DOCTYPE html>
<html>
<head><title>Face Attendance</title></head>
<body>
    <h1>Face Attendance Kiosk</h1>
    <p>No kiosk page is embedded in this build. The API is available at <a href="/api/v1/health">/api/v1/health</a>.</p>
</body>
</html>`
