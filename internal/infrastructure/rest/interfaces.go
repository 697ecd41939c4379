package rest

import "github.com/pmdesk/pmdesk/internal/core/ports"

var (
	_ ports.AuthAPI         = (*AuthClient)(nil)
	_ ports.UserAPI         = (*UserClient)(nil)
	_ ports.TeamAPI         = (*TeamClient)(nil)
	_ ports.ProjectAPI      = (*ProjectClient)(nil)
	_ ports.TaskAPI         = (*TaskClient)(nil)
	_ ports.CompanyAPI      = (*CompanyClient)(nil)
	_ ports.AdminAPI        = (*AdminClient)(nil)
	_ ports.NotificationAPI = (*NotificationClient)(nil)
)
