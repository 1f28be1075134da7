package api

import (
	"net/http"

	"agencyops/models"

	"github.com/shopspring/decimal"
)

type createPlanRequest struct {
	EmployeeID int64           `json:"employee_id"`
	ClientID   int64           `json:"client_id"`
	Rate       decimal.Decimal `json:"rate"`
}

func (s *Server) listCommissionPlans(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active", true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	employeeID, err := queryInt64(r, "employee_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	plans, err := s.services.Commissions.ListPlans(r.Context(), activeOnly, employeeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) createCommissionPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	plan, err := s.services.Commissions.CreatePlan(r.Context(), req.EmployeeID, req.ClientID, req.Rate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) deactivateCommissionPlan(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.services.Commissions.DeactivatePlan(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) calculateCommissions(w http.ResponseWriter, r *http.Request) {
	period, ok := s.readPeriod(w, r)
	if !ok {
		return
	}
	calc, err := s.services.Commissions.Calculate(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *Server) approveCommissions(w http.ResponseWriter, r *http.Request) {
	period, ok := s.readPeriod(w, r)
	if !ok {
		return
	}
	approved, err := s.services.Commissions.Approve(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

func (s *Server) listCommissions(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, "period")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	employeeID, err := queryInt64(r, "employee_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := models.CommissionStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.CommissionStatusPending, models.CommissionStatusApproved, models.CommissionStatusPaid:
	default:
		writeServiceError(w, r, badRequest("invalid status %q", status))
		return
	}

	commissions, err := s.services.Commissions.List(r.Context(), models.CommissionFilter{
		Period:     period,
		EmployeeID: employeeID,
		Status:     status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commissions)
}
