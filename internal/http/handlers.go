package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.health == nil {
		checks["storage"] = "not_configured"
	} else if err := s.health.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	if s.sheets == nil {
		checks["sheets"] = "disabled"
	} else {
		checks["sheets"] = "ok"
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	var b strings.Builder
	fmt.Fprintf(&b, "# HELP spendlog_uptime_seconds Process uptime\n")
	fmt.Fprintf(&b, "spendlog_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
	fmt.Fprintf(&b, "spendlog_http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(&b, "spendlog_http_server_errors_total %d\n", traceMetrics.ServerErrors)
	fmt.Fprintf(&b, "spendlog_rate_limit_rejected_total %d\n", limitMetrics.Rejected)
	fmt.Fprintf(&b, "spendlog_rate_limit_clients %d\n", limitMetrics.ClientCount)
	fmt.Fprintf(&b, "spendlog_suspicious_requests_total %d\n", securityMetrics.SuspiciousRequests)
	fmt.Fprintf(&b, "spendlog_invalid_ip_attempts_total %d\n", securityMetrics.InvalidIPAttempts)
	fmt.Fprintf(&b, "spendlog_expenses %d\n", len(s.expenses.All()))

	NewResponse().Bytes("text/plain; charset=utf-8", []byte(b.String())).Write(w)
}
