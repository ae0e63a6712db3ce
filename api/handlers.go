/*
handlers.go - HTTP API handlers for the KPI tracker

PURPOSE:
  Exposes the tracker facade via REST API. Handles HTTP request/response,
  JSON serialization and validation, and delegates to tracker.Tracker.

ENDPOINTS:
  Employees:
    GET    /api/employees                      List all employees
    POST   /api/employees                      Create employee
    GET    /api/employees/{id}                 Get employee
    PATCH  /api/employees/{id}                 Partial update
    DELETE /api/employees/{id}[?cascade=false] Remove employee
    GET    /api/employees/{id}/reports         Direct reports
    GET    /api/departments/{name}/employees   Department members

  KPIs:
    GET    /api/kpis                 List all KPIs
    POST   /api/kpis                 Create KPI
    GET    /api/kpis/{id}            Get KPI
    PATCH  /api/kpis/{id}            Partial update
    POST   /api/kpis/{id}/archive    Archive with an end date
    GET    /api/kpis/{id}/entries    Entries from the store and the cache

  Entries:
    POST   /api/entries                          Submit a KPI entry
    GET    /api/entries?employeeId=&week=        Filtered entries

  Weekly entries:
    GET    /api/weekly-entries                          List all
    POST   /api/weekly-entries                          Add
    PUT    /api/weekly-entries/{id}                     Replace
    GET    /api/weekly-entries/employee/{employeeId}    By employee, ?week= for one

  Cache:
    GET    /api/cache         Cache stats
    POST   /api/cache/sync    Push pending entries

  CSV:
    GET    /api/export/{kind}   Download CSV
    POST   /api/import/{kind}   Upload CSV (strict numbers)

  Reports:
    GET    /api/reports/{summary,departments,team,trends,integrity}
           Filters: ?department= &manager= &from= &to= (ISO weeks)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, malformed CSV
  - 404: Record not found
  - 413: Upload too large
  - 500: Internal errors
  - 502: Sync provider failure

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go:    Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/kpi-tracker/csvcodec"
	"github.com/warp/kpi-tracker/model"
	"github.com/warp/kpi-tracker/tracker"
)

// maxUploadBytes caps CSV imports.
const maxUploadBytes = 10 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	tracker  *tracker.Tracker
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new handler.
func NewHandler(t *tracker.Tracker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tracker:  t,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.tracker.Employees(r.Context())
	if err != nil {
		h.writeTrackerError(w, "Failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(employees))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.tracker.AddEmployee(r.Context(), req.toModel())
	if err != nil {
		h.writeTrackerError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.tracker.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeTrackerError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.tracker.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		h.writeTrackerError(w, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// DeleteEmployee removes an employee and, unless ?cascade=false, clears
// the manager links and KPI assignments that point at them.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	policy := tracker.ClearReferences
	if r.URL.Query().Get("cascade") == "false" {
		policy = tracker.KeepReferences
	}
	if err := h.tracker.RemoveEmployee(r.Context(), chi.URLParam(r, "id"), policy); err != nil {
		h.writeTrackerError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DirectReports(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.tracker.Employee(r.Context(), id); err != nil {
		h.writeTrackerError(w, "Failed to get employee", err)
		return
	}
	reports, err := h.tracker.DirectReports(r.Context(), id)
	if err != nil {
		h.writeTrackerError(w, "Failed to list direct reports", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(reports))
}

func (h *Handler) DepartmentEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.tracker.Department(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeTrackerError(w, "Failed to list department", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(employees))
}

// =============================================================================
// KPI HANDLERS
// =============================================================================

func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.tracker.KPIs(r.Context())
	if err != nil {
		h.writeTrackerError(w, "Failed to list KPIs", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(kpis))
}

func (h *Handler) CreateKPI(w http.ResponseWriter, r *http.Request) {
	var req CreateKPIRequest
	if !h.decode(w, r, &req) {
		return
	}
	kpi, err := h.tracker.CreateKPI(r.Context(), req.toModel())
	if err != nil {
		h.writeTrackerError(w, "Failed to create KPI", err)
		return
	}
	writeJSON(w, http.StatusCreated, kpi)
}

func (h *Handler) GetKPI(w http.ResponseWriter, r *http.Request) {
	kpi, err := h.tracker.KPI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeTrackerError(w, "Failed to get KPI", err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

// UpdateKPI merges a partial update. Switching the status through here
// follows the archive rules: inactive stamps an end date, active clears it.
func (h *Handler) UpdateKPI(w http.ResponseWriter, r *http.Request) {
	var req UpdateKPIRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	current, err := h.tracker.KPI(ctx, id)
	if err != nil {
		h.writeTrackerError(w, "Failed to update KPI", err)
		return
	}

	// Only a status change archives or reactivates; a repeated status is
	// left alone so an existing end date survives.
	patch := req.toPatch()
	status := patch.Status
	patch.Status = nil
	if status != nil && *status == current.Status {
		status = nil
	}

	kpi, err := h.tracker.UpdateKPI(ctx, id, patch)
	if err == nil && status != nil {
		switch *status {
		case model.KPIInactive:
			endDate := ""
			if req.EndDate != nil {
				endDate = *req.EndDate
			}
			kpi, err = h.tracker.ArchiveKPI(ctx, id, endDate)
		case model.KPIActive:
			kpi, err = h.tracker.ReactivateKPI(ctx, id)
			if err == nil && req.EndDate != nil && *req.EndDate != "" {
				kpi, err = h.tracker.UpdateKPI(ctx, id, model.KPIPatch{EndDate: req.EndDate})
			}
		}
	}
	if err != nil {
		h.writeTrackerError(w, "Failed to update KPI", err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

func (h *Handler) ArchiveKPI(w http.ResponseWriter, r *http.Request) {
	var req ArchiveKPIRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	kpi, err := h.tracker.ArchiveKPI(r.Context(), chi.URLParam(r, "id"), req.EndDate)
	if err != nil {
		h.writeTrackerError(w, "Failed to archive KPI", err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

func (h *Handler) KPIEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.tracker.KPI(r.Context(), id); err != nil {
		h.writeTrackerError(w, "Failed to get KPI", err)
		return
	}
	stored, err := h.tracker.KPIEntries(r.Context(), id)
	if err != nil {
		h.writeTrackerError(w, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, KPIEntriesResponse{
		Store: orEmpty(stored),
		Cache: orEmpty(h.tracker.Cache().EntriesByKPI(id)),
	})
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

func (h *Handler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	var req SubmitEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.tracker.SubmitEntry(r.Context(), tracker.EntryInput{
		KPIID:      req.KPIID,
		EmployeeID: req.EmployeeID,
		Value:      req.Value,
		Week:       req.Week,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeTrackerError(w, "Failed to submit entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.tracker.Entries(r.Context(), q.Get("employeeId"), q.Get("week"))
	if err != nil {
		h.writeTrackerError(w, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

// =============================================================================
// WEEKLY ENTRY HANDLERS
// =============================================================================

func (h *Handler) ListWeeklyEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tracker.WeeklyEntries(r.Context())
	if err != nil {
		h.writeTrackerError(w, "Failed to list weekly entries", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

func (h *Handler) CreateWeeklyEntry(w http.ResponseWriter, r *http.Request) {
	var req WeeklyEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.tracker.AddWeeklyEntry(r.Context(), req.toModel())
	if err != nil {
		h.writeTrackerError(w, "Failed to add weekly entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) ReplaceWeeklyEntry(w http.ResponseWriter, r *http.Request) {
	var req WeeklyEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.tracker.ReplaceWeeklyEntry(r.Context(), chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		h.writeTrackerError(w, "Failed to replace weekly entry", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// EmployeeWeeklyEntries lists an employee's reports, or returns the one for
// ?week= (404 when that week has none).
func (h *Handler) EmployeeWeeklyEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID := chi.URLParam(r, "employeeId")

	if week := r.URL.Query().Get("week"); week != "" {
		entry, err := h.tracker.WeeklyEntryFor(ctx, employeeID, week)
		if err != nil {
			h.writeTrackerError(w, "Failed to get weekly entry", err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
		return
	}

	entries, err := h.tracker.WeeklyEntriesFor(ctx, employeeID)
	if err != nil {
		h.writeTrackerError(w, "Failed to list weekly entries", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(entries))
}

// =============================================================================
// CACHE HANDLERS
// =============================================================================

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Cache().Stats())
}

// SyncCache pushes pending entries. A deferral is not an error: the queue
// is kept and 202 tells the caller to try again later.
func (h *Handler) SyncCache(w http.ResponseWriter, r *http.Request) {
	c := h.tracker.Cache()
	err := c.SyncEntries(r.Context())
	switch {
	case errors.Is(err, model.ErrSyncDeferred):
		writeJSON(w, http.StatusAccepted, SyncResponse{Synced: false, Pending: c.PendingCount(), LastSync: c.LastSync()})
	case err != nil:
		writeError(w, http.StatusBadGateway, "Sync failed", err)
	default:
		writeJSON(w, http.StatusOK, SyncResponse{Synced: true, Pending: c.PendingCount(), LastSync: c.LastSync()})
	}
}

// =============================================================================
// CSV HANDLERS
// =============================================================================

// Export renders the whole collection before writing, so a store failure
// still produces a JSON error instead of a truncated download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	kind, err := csvcodec.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown export type", err)
		return
	}
	var buf bytes.Buffer
	if err := h.tracker.Export(r.Context(), kind, &buf); err != nil {
		h.writeTrackerError(w, "Export failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvcodec.FileName(kind, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Import adds the uploaded rows. Numbers are parsed strictly; any error
// leaves the stores untouched.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	kind, err := csvcodec.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown import type", err)
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	n, err := h.tracker.Import(r.Context(), kind, body, csvcodec.Strict())
	if err != nil {
		h.logger.Warn("import failed", zap.String("kind", string(kind)), zap.Error(err))
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "Import failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Kind: string(kind), Imported: n})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	summary, err := h.tracker.PerformanceSummary(r.Context(), f)
	if err != nil {
		h.writeTrackerError(w, "Failed to build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Departments(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	metrics, err := h.tracker.DepartmentOverview(r.Context(), f)
	if err != nil {
		h.writeTrackerError(w, "Failed to build department overview", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(metrics))
}

func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	team, err := h.tracker.TeamPerformance(r.Context(), f)
	if err != nil {
		h.writeTrackerError(w, "Failed to build team performance", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(team))
}

func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	f, ok := parseFilter(w, r)
	if !ok {
		return
	}
	points, err := h.tracker.KPITrends(r.Context(), f)
	if err != nil {
		h.writeTrackerError(w, "Failed to build KPI trends", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(points))
}

func (h *Handler) Integrity(w http.ResponseWriter, r *http.Request) {
	report, err := h.tracker.Integrity(r.Context())
	if err != nil {
		h.writeTrackerError(w, "Failed to check integrity", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// parseFilter reads the report filters. from/to must be ISO weeks.
func parseFilter(w http.ResponseWriter, r *http.Request) (tracker.Filter, bool) {
	q := r.URL.Query()
	f := tracker.Filter{
		Department: q.Get("department"),
		ManagerID:  q.Get("manager"),
	}
	for _, p := range []struct {
		param string
		dst   *model.Week
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.param)
		if v == "" {
			continue
		}
		week, err := model.ParseWeek(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+p.param+" week", err)
			return f, false
		}
		*p.dst = week
	}
	return f, true
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads a JSON body into dst and validates it. On failure it has
// already written the response.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err), err)
		return false
	}
	return true
}

// writeTrackerError maps tracker errors to a status code.
func (h *Handler) writeTrackerError(w http.ResponseWriter, message string, err error) {
	switch {
	case model.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case model.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// orEmpty makes nil slices encode as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
