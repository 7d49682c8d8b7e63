package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
)

type ReportHandler interface {
	// Overtime returns employee and unit totals as JSON
	Overtime(w http.ResponseWriter, r *http.Request)

	// ExportOvertime downloads the same report as a workbook
	ExportOvertime(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

func overtimeRequest(r *http.Request) report.OvertimeReportRequest {
	q := r.URL.Query()
	return report.OvertimeReportRequest{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Baseline:  report.BaselineMode(q.Get("baseline")),
	}
}

// Overtime handles GET /reports/overtime
func (h *reportHandlerImpl) Overtime(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.Overtime(r.Context(), overtimeRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// ExportOvertime handles GET /reports/overtime/export
func (h *reportHandlerImpl) ExportOvertime(w http.ResponseWriter, r *http.Request) {
	file, err := h.reportService.ExportOvertime(r.Context(), overtimeRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}
