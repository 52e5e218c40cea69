package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"timer-service/models"
	"timer-service/services"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/errs"
	"github.com/umakantv/go-utils/httpserver"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// UserIDClaim is the RequestAuth claim carrying the authenticated user id.
const UserIDClaim = "user_id"

// Request is what a handler needs from an HTTP call.
type Request struct {
	Ctx    context.Context
	UserID int64
	Vars   map[string]string
	HTTP   *http.Request
}

// Response is rendered as JSON with Status. A nil Body writes no body.
type Response struct {
	Status int
	Body   interface{}
}

// Func handles one request.
type Func func(req *Request) Response

// Serve adapts fn to a bearer route. The user id comes from the claims set
// by the server's auth check.
func Serve(fn Func) httpserver.HandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		userID, ok := claimedUserID(httpserver.GetRequestAuth(ctx))
		if !ok {
			logRequest(ctx, "error", "Missing user claim")
			writeResponse(w, Response{
				Status: http.StatusUnauthorized,
				Body:   errs.NewAuthenticationError("Authentication credentials were not provided."),
			})
			return
		}
		run(ctx, w, r, userID, fn)
	}
}

// ServePublic adapts fn to a route without authentication.
func ServePublic(fn Func) httpserver.HandlerFunc {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		run(ctx, w, r, 0, fn)
	}
}

func run(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64, fn Func) {
	logRequest(ctx, "debug", "Handling request")
	resp := fn(&Request{Ctx: ctx, UserID: userID, Vars: mux.Vars(r), HTTP: r})
	logRequest(ctx, "info", "Request done", zap.Int("status", resp.Status))
	writeResponse(w, resp)
}

func claimedUserID(auth *httpserver.RequestAuth) (int64, bool) {
	if auth == nil {
		return 0, false
	}
	claims, ok := auth.Claims.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch id := claims[UserIDClaim].(type) {
	case int64:
		return id, true
	case float64:
		return int64(id), true
	}
	return 0, false
}

func writeResponse(w http.ResponseWriter, resp Response) {
	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	json.NewEncoder(w).Encode(resp.Body)
}

func respond(status int, body interface{}) Response {
	return Response{Status: status, Body: body}
}

// fail maps a service error onto a response.
func fail(ctx context.Context, err error) Response {
	var verr models.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return Response{Status: http.StatusBadRequest, Body: verr}
	case errors.Is(err, services.ErrNotFound):
		return Response{Status: http.StatusNotFound, Body: errs.NewNotFoundError("Not found.")}
	}
	logRequest(ctx, "error", "Unexpected error", zap.Error(err))
	return Response{Status: http.StatusInternalServerError, Body: errs.NewInternalServerError("Server error")}
}

// decodeJSON reads the request body into v. Type mismatches are reported
// against the offending field.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return models.NewFieldError(typeErr.Field, models.MsgInvalidInt)
	}
	return errBadJSON
}

var errBadJSON = errors.New("invalid JSON")

// MsgBadJSON is reported under non_field_errors for bodies that do not parse.
const MsgBadJSON = "JSON parse error."

// badRequest renders a decode failure from decodeJSON.
func badRequest(ctx context.Context, err error) Response {
	if errors.Is(err, errBadJSON) {
		return Response{Status: http.StatusBadRequest, Body: models.NewFieldError("non_field_errors", MsgBadJSON)}
	}
	return fail(ctx, err)
}

// pathID parses the {id} route variable. Anything that is not a positive
// integer cannot name a row.
func pathID(req *Request) (int64, error) {
	id, err := strconv.ParseInt(req.Vars["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrNotFound
	}
	return id, nil
}

// logRequest logs message at level, tagged with the route of ctx and the
// caller's user id when the route is authenticated.
func logRequest(ctx context.Context, level string, message string, fields ...zap.Field) {
	route := httpserver.GetRouteName(ctx)
	allFields := append([]zap.Field{
		zap.String("route", route),
		zap.String("method", httpserver.GetRouteMethod(ctx)),
		zap.String("path", httpserver.GetRoutePath(ctx)),
	}, fields...)
	if userID, ok := claimedUserID(httpserver.GetRequestAuth(ctx)); ok {
		allFields = append(allFields, zap.Int64("user_id", userID))
	}

	msg := message
	if route != "" {
		msg = route + ": " + message
	}

	switch level {
	case "info":
		logger.Info(msg, allFields...)
	case "error":
		logger.Error(msg, allFields...)
	default:
		logger.Debug(msg, allFields...)
	}
}
