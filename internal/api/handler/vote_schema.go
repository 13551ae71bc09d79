package handler

import "time"

// gateMetadataRequest carries the behavioral signals analysed before any vote
// is accepted. fill_duration is seconds between form render and submit; when
// the client sends no metadata block it defaults to a plausible human timing
// rather than zero, so older clients are not misread as instant submissions.
type gateMetadataRequest struct {
	FillDuration *float64 `json:"fill_duration" validate:"omitempty,min=0"`
	Webdriver    bool     `json:"webdriver"`
	CaptchaToken string   `json:"captcha_token"`
}

type submitVoteRequest struct {
	EntityID string              `json:"entity_id" validate:"required"`
	Sliders  map[string]int      `json:"sliders"   validate:"omitempty,dive,min=1,max=5"`
	Metadata gateMetadataRequest `json:"metadata"`
}

// batchVoteRequest is one row of an administrative bulk import.
type batchVoteRequest struct {
	CitizenID string         `json:"citizen_id" validate:"required"`
	EntityID  string         `json:"entity_id"  validate:"required"`
	Sliders   map[string]int `json:"sliders"    validate:"omitempty,dive,min=1,max=5"`
	Timestamp time.Time      `json:"timestamp"  validate:"required"`
}

// voteAcceptedResponse is all a voter ever sees. It carries no hint of the
// internal counted/shadow outcome.
type voteAcceptedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
	Skipped int    `json:"skipped,omitempty"`
}

// captchaChallengeResponse is returned when the active security level demands
// a challenge before the vote can be accepted.
type captchaChallengeResponse struct {
	CaptchaRequired bool   `json:"captcha_required"`
	CaptchaType     string `json:"captcha_type"`
	Reason          string `json:"reason"`
}
