package handlers

import (
	"net/http"

	"timer-service/models"
	"timer-service/services"
)

// TimerTypeHandler serves /timer-types.
type TimerTypeHandler struct {
	types *services.TimerTypeService
}

// NewTimerTypeHandler returns a TimerTypeHandler.
func NewTimerTypeHandler(types *services.TimerTypeService) *TimerTypeHandler {
	return &TimerTypeHandler{types: types}
}

// List handles GET /timer-types.
func (h *TimerTypeHandler) List(req *Request) Response {
	types, err := h.types.List(req.Ctx, req.UserID)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, models.NewTimerTypeResponses(types))
}

// Create handles POST /timer-types.
func (h *TimerTypeHandler) Create(req *Request) Response {
	var body models.TimerTypeRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	tt, err := h.types.Create(req.Ctx, req.UserID, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusCreated, models.NewTimerTypeResponse(*tt))
}

// Rename handles PUT /timer-types/{id}.
func (h *TimerTypeHandler) Rename(req *Request) Response {
	id, err := pathID(req)
	if err != nil {
		return fail(req.Ctx, err)
	}
	var body models.TimerTypeRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	tt, err := h.types.Rename(req.Ctx, req.UserID, id, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, models.NewTimerTypeResponse(*tt))
}

// Delete handles DELETE /timer-types/{id}.
func (h *TimerTypeHandler) Delete(req *Request) Response {
	id, err := pathID(req)
	if err != nil {
		return fail(req.Ctx, err)
	}
	if err := h.types.Delete(req.Ctx, req.UserID, id); err != nil {
		return fail(req.Ctx, err)
	}
	return Response{Status: http.StatusNoContent}
}
