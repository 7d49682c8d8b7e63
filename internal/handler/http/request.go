package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/geopoint/geopoint-backend-go/internal/domain/request"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
)

type RequestHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type requestHandlerImpl struct {
	requestService request.RequestService
}

func NewRequestHandler(requestService request.RequestService) RequestHandler {
	return &requestHandlerImpl{requestService: requestService}
}

// Create accepts JSON, or multipart with a `data` JSON field and an optional `attachment` file
func (h *requestHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRequestRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if !decodeJSON(w, r, &req, maxJSONBody) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, request.MaxAttachmentSize+1<<20)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		dataJSON := r.FormValue("data")
		if dataJSON == "" {
			response.BadRequest(w, "Field 'data' is required", nil)
			return
		}
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return
		}

		file, fileHeader, err := r.FormFile("attachment")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
		if file != nil {
			defer file.Close()
			req.File = file
			req.Filename = fileHeader.Filename
			req.FileSize = fileHeader.Size
		}
	}

	result, err := h.requestService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Request submitted", result)
}

func requestFilter(r *http.Request) request.RequestFilter {
	return request.RequestFilter{
		Status: queryString(r, "status"),
		UserID: queryString(r, "user_id"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}
}

func (h *requestHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.requestService.ListMine(r.Context(), requestFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Requests, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *requestHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.requestService.List(r.Context(), requestFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Requests, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *requestHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.requestService.Approve(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Request approved", result)
}

func (h *requestHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.requestService.Reject(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Request rejected", result)
}
