package http

import (
	"net/http"

	"github.com/geopoint/geopoint-backend-go/internal/domain/schedule"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
)

type ScheduleHandler interface {
	// Work Shift
	CreateShift(w http.ResponseWriter, r *http.Request)
	ListShifts(w http.ResponseWriter, r *http.Request)
	UpdateShift(w http.ResponseWriter, r *http.Request)
	DeleteShift(w http.ResponseWriter, r *http.Request)

	// Work Schedule
	CreateWorkSchedule(w http.ResponseWriter, r *http.Request)
	GetWorkSchedule(w http.ResponseWriter, r *http.Request)
	ListWorkSchedules(w http.ResponseWriter, r *http.Request)
	UpdateWorkSchedule(w http.ResponseWriter, r *http.Request)
	DeleteWorkSchedule(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
	}
}

// ==================== WORK SHIFT HANDLERS ====================

func (h *scheduleHandlerImpl) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req schedule.CreateShiftRequest
	if !decodeJSON(w, r, &req, maxJSONBody) {
		return
	}

	result, err := h.scheduleService.CreateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Work shift created", result)
}

func (h *scheduleHandlerImpl) ListShifts(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListShifts(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *scheduleHandlerImpl) UpdateShift(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req schedule.UpdateShiftRequest
	if !decodeJSON(w, r, &req, maxJSONBody) {
		return
	}
	req.ID = id

	result, err := h.scheduleService.UpdateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Work shift updated", result)
}

func (h *scheduleHandlerImpl) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteShift(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Work shift deleted", nil)
}

// ==================== WORK SCHEDULE HANDLERS ====================

func (h *scheduleHandlerImpl) CreateWorkSchedule(w http.ResponseWriter, r *http.Request) {
	var req schedule.CreateScheduleRequest
	if !decodeJSON(w, r, &req, maxJSONBody) {
		return
	}

	result, err := h.scheduleService.CreateSchedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Work schedule created", result)
}

func (h *scheduleHandlerImpl) GetWorkSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.scheduleService.GetSchedule(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *scheduleHandlerImpl) ListWorkSchedules(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduleService.ListSchedules(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *scheduleHandlerImpl) UpdateWorkSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req schedule.UpdateScheduleRequest
	if !decodeJSON(w, r, &req, maxJSONBody) {
		return
	}
	req.ID = id

	result, err := h.scheduleService.UpdateSchedule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Work schedule updated", result)
}

func (h *scheduleHandlerImpl) DeleteWorkSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteSchedule(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Work schedule deleted", nil)
}
