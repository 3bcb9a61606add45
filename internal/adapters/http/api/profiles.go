package api

import (
	"net/http"

	"github.com/okian/huddle/internal/domain/scoring"
)

// ProfileLister exposes the registered weight profiles.
type ProfileLister interface {
	Profiles() []scoring.Profile
}

// ProfilesHandler handles profile listing requests.
type ProfilesHandler struct {
	lister ProfileLister
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(lister ProfileLister) *ProfilesHandler {
	return &ProfilesHandler{lister: lister}
}

type profilesResponse struct {
	Default  string            `json:"default"`
	Profiles []scoring.Profile `json:"profiles"`
}

// HandleListProfiles handles GET /profiles requests.
func (h *ProfilesHandler) HandleListProfiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, profilesResponse{
		Default:  scoring.DefaultProfile,
		Profiles: h.lister.Profiles(),
	})
}
