package model

import "time"

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=100"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        Role   `json:"role"`
	Username    string `json:"username"`
}

type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func NewUserView(u *User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Role: u.Role}
}

type PersonaCreate struct {
	AccountID   string `json:"account_id" binding:"required"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Tone        string `json:"tone" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"required,min=1"`
}

type PersonaSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tone string `json:"tone"`
}

type PersonaImageResponse struct {
	ID          string      `json:"id"`
	ImageStatus ImageStatus `json:"image_status"`
	ImageURL    string      `json:"image_url,omitempty"`
}

type DiaryCreate struct {
	AccountID string `json:"account_id" binding:"required"`
	Title     string `json:"title" binding:"required,min=1,max=120"`
}

type DiarySummary struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	DefaultPersonaID *string `json:"default_persona_id"`
}

type EntryGenerateRequest struct {
	DiaryID       string  `json:"diary_id" binding:"required"`
	PersonaID     string  `json:"persona_id"`
	InputKeywords *string `json:"input_keywords"`
	InputText     *string `json:"input_text"`
	WithImage     bool    `json:"with_image"`
}

type EntryGenerateResponse struct {
	ID          string      `json:"id"`
	Draft       string      `json:"draft"`
	Status      EntryStatus `json:"status"`
	ImageStatus ImageStatus `json:"image_status,omitempty"`
}

type EntrySaveRequest struct {
	Draft string `json:"draft" binding:"required,min=1"`
}

type EntrySaveResponse struct {
	ID     string      `json:"id"`
	Status EntryStatus `json:"status"`
}

type EntryView struct {
	ID        string      `json:"id"`
	Draft     string      `json:"draft"`
	Status    EntryStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	ImageURL  string      `json:"image_url,omitempty"`
}
