package handlers

import (
	"errors"
	"net/http"

	"timer-service/models"
	"timer-service/services"
)

// TimerHandler serves /timers.
type TimerHandler struct {
	timers        *services.TimerService
	maxUploadSize int64
}

// NewTimerHandler returns a TimerHandler accepting uploads up to maxUploadSize bytes.
func NewTimerHandler(timers *services.TimerService, maxUploadSize int64) *TimerHandler {
	return &TimerHandler{timers: timers, maxUploadSize: maxUploadSize}
}

// List handles GET /timers. Repeated or comma-separated timer_type_name
// values select timers tagged with any of them.
func (h *TimerHandler) List(req *Request) Response {
	filter := models.ParseTypeFilter(req.HTTP.URL.Query()["timer_type_name"])
	timers, err := h.timers.List(req.Ctx, req.UserID, filter)
	if err != nil {
		return fail(req.Ctx, err)
	}
	out := make([]models.TimerDetailResponse, 0, len(timers))
	for i := range timers {
		out = append(out, models.NewTimerDetailResponse(&timers[i], h.timers.ImageURL))
	}
	return respond(http.StatusOK, out)
}

// Create handles POST /timers.
func (h *TimerHandler) Create(req *Request) Response {
	var body models.TimerRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	t, err := h.timers.Create(req.Ctx, req.UserID, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusCreated, models.NewTimerResponse(t))
}

// Get handles GET /timers/{id}.
func (h *TimerHandler) Get(req *Request) Response {
	id, err := pathID(req)
	if err != nil {
		return fail(req.Ctx, err)
	}
	t, err := h.timers.Get(req.Ctx, req.UserID, id)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, models.NewTimerResponse(t))
}

// Replace handles PUT /timers/{id}.
func (h *TimerHandler) Replace(req *Request) Response {
	id, err := pathID(req)
	if err != nil {
		return fail(req.Ctx, err)
	}
	var body models.TimerRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	t, err := h.timers.Replace(req.Ctx, req.UserID, id, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, models.NewTimerResponse(t))
}

// Delete handles DELETE /timers/{id}.
func (h *TimerHandler) Delete(req *Request) Response {
	id, err := pathID(req)
	if err != nil {
		return fail(req.Ctx, err)
	}
	if err := h.timers.Delete(req.Ctx, req.UserID, id); err != nil {
		return fail(req.Ctx, err)
	}
	return Response{Status: http.StatusNoContent}
}

// UploadImage handles POST /timers/{id}/media-upload with a multipart
// "image" field.
func (h *TimerHandler) UploadImage(req *Request) Response {
	id, err := pathID(req)
	if err != nil {
		return fail(req.Ctx, err)
	}

	r := req.HTTP
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fail(req.Ctx, models.NewFieldError("image", "Upload is too large."))
		}
		return fail(req.Ctx, models.NewFieldError("image", models.MsgNoFile))
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		return fail(req.Ctx, models.NewFieldError("image", models.MsgNoFile))
	}
	defer file.Close()

	t, err := h.timers.SetImage(req.Ctx, req.UserID, id, header.Filename, file)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusCreated, models.ImageResponse{ID: t.ID, Image: h.timers.ImageURL(*t.Image)})
}
