package api

import (
	"net/http"
	"time"

	"agencyops/models"
)

type createEmployeeRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	DepartmentID  int    `json:"department_id"`
	MonthlySalary string `json:"monthly_salary"`
	HiredAt       string `json:"hired_at,omitempty"` // YYYY-MM-DD, defaults to today
}

type updateEmployeeRequest struct {
	FullName      *string `json:"full_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	DepartmentID  *int    `json:"department_id,omitempty"`
	MonthlySalary *string `json:"monthly_salary,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

type periodRequest struct {
	Period string `json:"period"`
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active", false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	employees, err := s.services.Payroll.ListEmployees(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	salary, err := models.ParseCents(req.MonthlySalary)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	employee := &models.Employee{
		FullName:      req.FullName,
		Email:         req.Email,
		DepartmentID:  req.DepartmentID,
		MonthlySalary: salary,
	}
	if req.HiredAt != "" {
		hiredAt, err := time.Parse(time.DateOnly, req.HiredAt)
		if err != nil {
			writeServiceError(w, r, badRequest("invalid hired_at %q, expected YYYY-MM-DD", req.HiredAt))
			return
		}
		employee.HiredAt = hiredAt
	}

	created, err := s.services.Payroll.CreateEmployee(r.Context(), employee)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	employee, err := s.services.Payroll.GetEmployee(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateEmployeeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	salary, err := parseAmount(req.MonthlySalary)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	employee, err := s.services.Payroll.UpdateEmployee(r.Context(), id, models.EmployeeUpdate{
		FullName:      req.FullName,
		Email:         req.Email,
		DepartmentID:  req.DepartmentID,
		MonthlySalary: salary,
		Active:        req.Active,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (s *Server) listPayrollRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt64(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	runs, err := s.services.Payroll.ListRuns(r.Context(), int(limit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) generatePayrollRun(w http.ResponseWriter, r *http.Request) {
	period, ok := s.readPeriod(w, r)
	if !ok {
		return
	}
	detail, err := s.services.Payroll.GenerateRun(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) getPayrollRun(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	detail, err := s.services.Payroll.GetRun(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) approvePayrollRun(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	detail, err := s.services.Payroll.ApproveRun(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) payPayrollRun(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	run, err := s.services.Payroll.MarkPaid(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// readPeriod decodes a {"period": "YYYY-MM"} body, writing the error response itself
func (s *Server) readPeriod(w http.ResponseWriter, r *http.Request) (models.FiscalPeriod, bool) {
	var req periodRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return models.FiscalPeriod{}, false
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		writeServiceError(w, r, err)
		return models.FiscalPeriod{}, false
	}
	return period, true
}
