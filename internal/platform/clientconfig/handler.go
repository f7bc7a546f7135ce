// Package clientconfig serves the anonymous endpoint clients read before
// they authenticate: server name, version and whether OAuth login is offered.
package clientconfig

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"syncauth/pkg/platform/httputil"
)

// Info is what the server publishes. OAuthEnabled is computed by the caller
// from the full OAuth configuration; no credential is ever stored here.
type Info struct {
	ServerName    string
	ServerVersion string
	DiscordInvite string
	ServerRules   string
	OAuthEnabled  bool
}

type Response struct {
	ServerName     string `json:"server_name"`
	ServerVersion  string `json:"server_version"`
	DiscordInvite  string `json:"discord_invite,omitempty"`
	ServerRules    string `json:"server_rules,omitempty"`
	IsOAuthEnabled bool   `json:"is_oauth_enabled"`
}

type Handler struct {
	resp Response
}

func New(info Info) *Handler {
	return &Handler{resp: Response{
		ServerName:     info.ServerName,
		ServerVersion:  info.ServerVersion,
		DiscordInvite:  info.DiscordInvite,
		ServerRules:    info.ServerRules,
		IsOAuthEnabled: info.OAuthEnabled,
	}}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/clientconfiguration/get", h.HandleGet)
}

func (h *Handler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.resp)
}
