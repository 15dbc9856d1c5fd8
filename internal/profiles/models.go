package profiles

import "time"

// ProfileDTO is the API view of a profile and its onboarding state.
type ProfileDTO struct {
	UserID              string            `json:"user_id"`
	Name                string            `json:"name"`
	OnboardingStep      int               `json:"onboarding_step"`
	OnboardingCompleted bool              `json:"onboarding_completed"`
	Goal                string            `json:"goal,omitempty"`
	Summary             string            `json:"summary,omitempty"`
	Answers             map[string]string `json:"answers"`
	Insights            []string          `json:"insights"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// UpdateProfileRequest is the body of PATCH /v1/profile.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// ResetResponse is returned by POST /v1/profile/onboarding/reset. Question is
// what the coach asks on the next message.
type ResetResponse struct {
	Profile  ProfileDTO `json:"profile"`
	Question string     `json:"next_question"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
