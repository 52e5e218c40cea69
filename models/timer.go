package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TimerType is a per-user category used to tag timers.
type TimerType struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	UserID int64  `json:"-" db:"user_id"`
}

// Timer is a tracked duration owned by one user.
// Image holds the storage key of the uploaded picture, if any.
type Timer struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CurrentTime int64     `db:"current_duration"`
	LastSession int64     `db:"last_session"`
	Goal        int64     `db:"goal"`
	Image       *string   `db:"image"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Types []TimerType `db:"-"`
}

// TimerTypeInput names a timer type inside a timer payload.
type TimerTypeInput struct {
	Name string `json:"name" validate:"notblank,max=255"`
}

// TimerRequest is the body of POST /timers and PUT /timers/{id}.
// Nil fields were absent from the payload. A nil TimerTypes leaves the
// current membership alone, an empty one clears it.
type TimerRequest struct {
	Title       *string           `json:"title" validate:"required,notblank,max=255"`
	Description *string           `json:"description"`
	CurrentTime *int64            `json:"current_time"`
	LastSession *int64            `json:"last_session"`
	Goal        *int64            `json:"goal"`
	TimerTypes  *[]TimerTypeInput `json:"timer_type" validate:"omitempty,dive"`
}

// Validate trims text fields and checks the payload.
func (r *TimerRequest) Validate() error {
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
	}
	if r.TimerTypes != nil {
		for i := range *r.TimerTypes {
			(*r.TimerTypes)[i].Name = strings.TrimSpace((*r.TimerTypes)[i].Name)
		}
	}
	return validateStruct(r)
}

// TypeNames returns the distinct requested type names in request order.
func (r *TimerRequest) TypeNames() []string {
	if r.TimerTypes == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(*r.TimerTypes))
	names := make([]string, 0, len(*r.TimerTypes))
	for _, t := range *r.TimerTypes {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		names = append(names, t.Name)
	}
	return names
}

// Apply copies the present fields of r onto t.
func (r *TimerRequest) Apply(t *Timer) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.CurrentTime != nil {
		t.CurrentTime = *r.CurrentTime
	}
	if r.LastSession != nil {
		t.LastSession = *r.LastSession
	}
	if r.Goal != nil {
		t.Goal = *r.Goal
	}
}

// TimerTypeRequest is the body of POST /timer-types and PUT /timer-types/{id}.
type TimerTypeRequest struct {
	Name *string `json:"name" validate:"required,notblank,max=255"`
}

// Validate trims and checks the name.
func (r *TimerTypeRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
	}
	return validateStruct(r)
}

// ParseTypeFilter collects timer type names from query values. Each value may
// hold several comma-separated names; empty tokens are dropped and duplicates
// removed.
func ParseTypeFilter(values []string) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || utf8.RuneCountInString(tok) > MaxNameLength {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			names = append(names, tok)
		}
	}
	return names
}

// TimerTypeResponse is the wire form of a timer type.
type TimerTypeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TimerResponse is the compact wire form of a timer.
type TimerResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	CurrentTime int64               `json:"current_time"`
	LastSession int64               `json:"last_session"`
	TimerTypes  []TimerTypeResponse `json:"timer_type"`
}

// TimerDetailResponse adds description, goal and image to TimerResponse.
type TimerDetailResponse struct {
	TimerResponse
	Description string  `json:"description"`
	Goal        int64   `json:"goal"`
	Image       *string `json:"image"`
}

// ImageResponse is returned by the media upload endpoint.
type ImageResponse struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// NewTimerTypeResponse renders tt.
func NewTimerTypeResponse(tt TimerType) TimerTypeResponse {
	return TimerTypeResponse{ID: tt.ID, Name: tt.Name}
}

// NewTimerTypeResponses renders a list of timer types, never nil.
func NewTimerTypeResponses(types []TimerType) []TimerTypeResponse {
	out := make([]TimerTypeResponse, 0, len(types))
	for _, tt := range types {
		out = append(out, NewTimerTypeResponse(tt))
	}
	return out
}

// NewTimerResponse renders t in compact form.
func NewTimerResponse(t *Timer) TimerResponse {
	return TimerResponse{
		ID:          t.ID,
		Title:       t.Title,
		CurrentTime: t.CurrentTime,
		LastSession: t.LastSession,
		TimerTypes:  NewTimerTypeResponses(t.Types),
	}
}

// NewTimerDetailResponse renders t with its image resolved by imageURL.
func NewTimerDetailResponse(t *Timer, imageURL func(key string) string) TimerDetailResponse {
	resp := TimerDetailResponse{
		TimerResponse: NewTimerResponse(t),
		Description:   t.Description,
		Goal:          t.Goal,
	}
	if t.Image != nil && *t.Image != "" {
		url := imageURL(*t.Image)
		resp.Image = &url
	}
	return resp
}
