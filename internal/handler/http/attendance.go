package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/geopoint/geopoint-backend-go/internal/domain/attendance"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
)

// maxPunchBody leaves room for a base64 selfie of MaxPhotoSize plus the form fields.
const maxPunchBody = attendance.MaxPhotoSize*4/3 + 1<<20

type AttendanceHandler interface {
	Punch(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	MyRecords(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Punch accepts multipart (a `data` JSON field plus an optional `photo` file) or plain JSON
// with the selfie inlined as a data URI.
func (h *attendanceHandlerImpl) Punch(w http.ResponseWriter, r *http.Request) {
	var req attendance.PunchRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxPunchBody)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.HandleError(w, attendance.ErrPhotoTooLarge)
				return
			}
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		if dataJSON := r.FormValue("data"); dataJSON != "" {
			if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
				response.BadRequest(w, "Invalid request format", nil)
				return
			}
		}

		file, fileHeader, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			req.File = file
			req.Filename = fileHeader.Filename
			req.FileSize = fileHeader.Size
		case errors.Is(err, http.ErrMissingFile):
			// photo is optional
		default:
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
	} else if !decodeJSON(w, r, &req, maxPunchBody) {
		return
	}

	result, err := h.attendanceService.Punch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", result)
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

// MyRecords implements AttendanceHandler.
func (h *attendanceHandlerImpl) MyRecords(w http.ResponseWriter, r *http.Request) {
	filter := attendance.MyRecordFilter{
		StartDate: queryString(r, "start_date"),
		EndDate:   queryString(r, "end_date"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 20),
	}

	result, err := h.attendanceService.GetMyRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Records, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendance.RecordFilter{
		EmployeeID:     queryString(r, "employee_id"),
		Type:           queryString(r, "type"),
		StartDate:      queryString(r, "start_date"),
		EndDate:        queryString(r, "end_date"),
		OutOfPerimeter: queryBool(r, "out_of_perimeter"),
		Page:           queryInt(r, "page", 1),
		Limit:          queryInt(r, "limit", 20),
		SortOrder:      r.URL.Query().Get("sort_order"),
	}

	result, err := h.attendanceService.ListRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Records, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.attendanceService.DeleteRecord(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Time record deleted", nil)
}
