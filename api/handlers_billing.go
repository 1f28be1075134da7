package api

import (
	"net/http"
	"time"

	"agencyops/metrics"
	"agencyops/models"
)

type createBillingRequest struct {
	ClientID int64  `json:"client_id"`
	Period   string `json:"period"`
	Notes    string `json:"notes"`
}

type addLineRequest struct {
	DepartmentID  int    `json:"department_id"`
	Description   string `json:"description"`
	Investment    string `json:"investment"`
	PlatformCount int    `json:"platform_count"`
}

type reconcileRequest struct {
	Period string `json:"period,omitempty"`
	DryRun bool   `json:"dry_run"`
}

func (s *Server) listBilling(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, "period")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	clientID, err := queryInt64(r, "client_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := models.BillingStatus(r.URL.Query().Get("status"))
	if status != "" && status != models.BillingStatusDraft && status != models.BillingStatusFinalized {
		writeServiceError(w, r, badRequest("invalid status %q", status))
		return
	}

	records, err := s.services.Billing.ListRecords(r.Context(), models.BillingFilter{
		Period:   period,
		ClientID: clientID,
		Status:   status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) createBilling(w http.ResponseWriter, r *http.Request) {
	var req createBillingRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	billing, err := s.services.Billing.CreateRecord(r.Context(), req.ClientID, period, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, billing)
}

func (s *Server) getBilling(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	detail, err := s.services.Billing.GetRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) addBillingLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req addLineRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	investment, err := models.ParseCents(req.Investment)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	detail, err := s.services.Billing.AddLine(r.Context(), id, req.DepartmentID, req.Description, investment, req.PlatformCount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) removeBillingLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	lineID, err := idParam(r, "lineID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	detail, err := s.services.Billing.RemoveLine(r.Context(), id, lineID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) finalizeBilling(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	detail, err := s.services.Billing.Finalize(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var period *models.FiscalPeriod
	if req.Period != "" {
		p, err := models.ParsePeriod(req.Period)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		period = &p
	}

	start := time.Now()
	report, err := s.services.Reconciliation.Reconcile(r.Context(), period, req.DryRun)
	drifted := 0
	if report != nil {
		drifted = report.Drifted
	}
	metrics.RecordReconciliation("http", time.Since(start), drifted, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
