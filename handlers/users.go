package handlers

import (
	"net/http"

	"timer-service/models"
	"timer-service/services"
)

// UserHandler serves account signup, token issuance and the caller's profile.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler returns a UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Signup handles POST /users.
func (h *UserHandler) Signup(req *Request) Response {
	var body models.CreateUserRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	u, err := h.users.Register(req.Ctx, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusCreated, models.NewUserResponse(u))
}

// Token handles POST /users/token.
func (h *UserHandler) Token(req *Request) Response {
	var body models.LoginRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	tok, err := h.users.Login(req.Ctx, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, tok)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(req *Request) Response {
	u, err := h.users.Get(req.Ctx, req.UserID)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, models.NewUserResponse(u))
}

// UpdateMe handles PUT /users/me.
func (h *UserHandler) UpdateMe(req *Request) Response {
	var body models.UpdateUserRequest
	if err := decodeJSON(req.HTTP, &body); err != nil {
		return badRequest(req.Ctx, err)
	}
	u, err := h.users.Update(req.Ctx, req.UserID, body)
	if err != nil {
		return fail(req.Ctx, err)
	}
	return respond(http.StatusOK, models.NewUserResponse(u))
}

// DeleteMe handles DELETE /users/me.
func (h *UserHandler) DeleteMe(req *Request) Response {
	if err := h.users.Delete(req.Ctx, req.UserID); err != nil {
		return fail(req.Ctx, err)
	}
	return Response{Status: http.StatusNoContent}
}
