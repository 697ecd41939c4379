package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// sessionResponse never carries the access token.
type sessionResponse struct {
	UserID      int64    `json:"userId"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	HighestRole string   `json:"highestRole,omitempty"`
	CompanyID   *int64   `json:"companyId"`
}

// Current handles GET /session.
//
// @Summary      Signed-in user
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	resp := sessionResponse{Roles: []string{}, CompanyID: sess.CompanyID}
	if u := sess.User; u != nil {
		resp.UserID = u.ID
		resp.Username = u.Username
		resp.Email = u.Email
		resp.Roles = u.Roles.Strings()
		resp.HighestRole = string(u.HighestRole())
	}
	return c.JSON(http.StatusOK, resp)
}
