package model

import "time"

// Session is a single applicant's pass through the wizard. CurrentStep is a
// display cursor only.
type Session struct {
	ID          string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	CurrentStep string    `json:"current_step"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Progress is derived navigation state for a session.
type Progress struct {
	CurrentStep          string  `json:"current_step"`
	TotalSteps           int     `json:"total_steps"`
	AnsweredRequired     int     `json:"answered_required"`
	TotalRequired        int     `json:"total_required"`
	CompletionPercentage float64 `json:"completion_percentage"`
	IsComplete           bool    `json:"is_complete"`
}

// Tokens are issued by the identity provider.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int32  `json:"expires_in"`
}
