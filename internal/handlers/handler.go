package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/csg33k/tss-payroll/internal/adapters/sqlite"
	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/logging"
	"github.com/csg33k/tss-payroll/internal/metrics"
	"github.com/csg33k/tss-payroll/internal/payroll"
	"github.com/csg33k/tss-payroll/internal/ports"
	"github.com/csg33k/tss-payroll/internal/templates"
)

// maxBody caps request bodies; a batch for a few thousand employees fits.
const maxBody = 8 << 20

// Exporters groups the artifact producers the handler serves.
type Exporters struct {
	Submission ports.SubmissionExporter
	Report     ports.ReportExporter
	Payslip    ports.PayslipRenderer
}

type Handler struct {
	engine  *payroll.Engine
	exp     Exporters
	repo    ports.ArtifactRepository
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	valid   *validator.Validate
}

// New wires the handler. m may be nil to disable metrics.
func New(engine *payroll.Engine, exp Exporters, repo ports.ArtifactRepository, m *metrics.Metrics, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{
		engine:  engine,
		exp:     exp,
		repo:    repo,
		metrics: m,
		log:     log,
		valid:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /payroll/compute", h.compute)
	mux.HandleFunc("POST /payroll/validate", h.validate)
	mux.HandleFunc("POST /exports/submission", h.exportSubmission)
	mux.HandleFunc("POST /exports/report", h.exportReport)
	mux.HandleFunc("POST /exports/payslip", h.exportPayslip)
	mux.HandleFunc("GET /exports", h.listExports)
	mux.HandleFunc("GET /exports/{id}", h.downloadExport)
	mux.HandleFunc("DELETE /exports/{id}", h.deleteExport)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return mux
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.repo.ListArtifacts(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	render(w, r, templates.Index(artifacts, h.engine.Config()))
}

// ── Payroll ──────────────────────────────────────────────────────────────────

func (h *Handler) compute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if !h.decode(w, r, &req) {
		return
	}

	var opts []payroll.Option
	if req.RiskFactor != nil {
		opts = append(opts, payroll.WithRiskFactor(*req.RiskFactor))
	}
	line := payroll.NewLine(req.EmployeeID, req.Period, req.BaseSalary, req.Bonuses, req.Deductions)
	if err := h.engine.Compute(line, opts...); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	resp := computeResponse{Line: roundLine(line)}
	if req.Approve {
		res, err := h.engine.Approve(line, payroll.ApproveOptions{AllowViolations: req.AllowViolations})
		if err != nil {
			h.fail(w, r, http.StatusConflict, err)
			return
		}
		h.metrics.Violations(len(res.Errors))
		resp.Line.Status = line.Status
		resp.Validation = &res
	}
	h.metrics.Line(string(line.Status))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.engine.Validate(req.BaseSalary, req.Pension, req.Health, req.IncomeTax)
	h.metrics.Violations(len(res.Errors))
	writeJSON(w, http.StatusOK, res)
}

// ── Exports ──────────────────────────────────────────────────────────────────

func (h *Handler) exportSubmission(w http.ResponseWriter, r *http.Request) {
	var batch domain.PayrollBatch
	if !h.decode(w, r, &batch) {
		return
	}
	a, err := h.exp.Submission.Generate(r.Context(), &batch)
	h.deliver(w, r, "submission", a, err)
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	var batch domain.PayrollBatch
	if !h.decode(w, r, &batch) {
		return
	}
	a, err := h.exp.Report.Generate(r.Context(), &batch)
	h.deliver(w, r, "report", a, err)
}

func (h *Handler) exportPayslip(w http.ResponseWriter, r *http.Request) {
	var req payslipRequest
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.exp.Payslip.Generate(r.Context(), &req.Line, &req.Employee)
	h.deliver(w, r, "payslip", a, err)
}

// deliver archives a generated artifact and streams it back. Nothing is
// archived or written when generation failed.
func (h *Handler) deliver(w http.ResponseWriter, r *http.Request, name string, a *domain.Artifact, err error) {
	if err != nil {
		var be *tss.BatchError
		if errors.As(err, &be) {
			h.metrics.Export(name, metrics.OutcomeRejected)
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Problems: be.Problems})
			return
		}
		h.metrics.Export(name, metrics.OutcomeError)
		h.fail(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	if err := h.repo.SaveArtifact(r.Context(), a); err != nil {
		h.metrics.Export(name, metrics.OutcomeError)
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	h.metrics.Export(name, metrics.OutcomeSuccess)
	h.log.WithFields(logrus.Fields{"id": a.ID, "file": a.Filename, "kind": a.Kind}).Info("artifact archived")
	download(w, a)
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.repo.ListArtifacts(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	out := make([]artifactInfo, len(artifacts))
	for i, a := range artifacts {
		out[i] = infoOf(&a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) downloadExport(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.GetArtifact(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	download(w, a)
}

func (h *Handler) deleteExport(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteArtifact(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, statusFor(err), err)
		return
	}
	// htmx swaps the row for an empty body
	w.WriteHeader(http.StatusOK)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func download(w http.ResponseWriter, a *domain.Artifact) {
	w.Header().Set("Content-Type", a.Kind.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
	w.Header().Set("X-Artifact-ID", a.ID)
	w.Write(a.Content)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return false
	}
	if err := h.valid.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	entry := h.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	if status >= 500 {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Debug("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, sqlite.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
