package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/upload"
)

const (
	profilePath  = "/v3/users/me"
	settingsPath = "/v3/settings"
)

// Auth covers the session endpoints.
type Auth struct {
	c *apiclient.Client
}

// Me returns the signed-in user.
func (r *Auth) Me(ctx context.Context) apiclient.Envelope[models.User] {
	return apiclient.Get[models.User](ctx, r.c, "/v3/auth/me", nil)
}

// Logout ends the server session, then clears the device id and cookies
// whatever the server answered.
func (r *Auth) Logout(ctx context.Context) apiclient.Envelope[Raw] {
	env := apiclient.Post[Raw](ctx, r.c, "/v3/auth/logout/"+url.PathEscape(r.c.Device().ID()), nil)
	r.c.ClearSession()
	return env
}

// Profile manages the signed-in user's own account.
type Profile struct {
	c  *apiclient.Client
	up *uploader
}

// Get returns the profile.
func (r *Profile) Get(ctx context.Context) apiclient.Envelope[models.User] {
	return apiclient.Get[models.User](ctx, r.c, profilePath, nil)
}

// Update changes name or email.
func (r *Profile) Update(ctx context.Context, req models.ProfileRequest) apiclient.Envelope[models.User] {
	return apiclient.Put[models.User](ctx, r.c, profilePath, req)
}

// UploadAvatar replaces the profile picture.
func (r *Profile) UploadAvatar(ctx context.Context, file upload.FileInfo, onProgress ProgressFunc) apiclient.Envelope[models.User] {
	return send[models.User](ctx, r.up, uploadCall{
		method:     http.MethodPut,
		path:       profilePath + "/avatar",
		field:      "avatar",
		files:      []upload.FileInfo{file},
		rules:      upload.ImageRules,
		onProgress: onProgress,
	})
}

// ChangePassword sets a new password.
func (r *Profile) ChangePassword(ctx context.Context, req models.PasswordChange) apiclient.Envelope[Raw] {
	return apiclient.Put[Raw](ctx, r.c, profilePath+"/password", req)
}

// Settings manages site-wide settings.
type Settings struct {
	c *apiclient.Client
}

// Get returns the current settings.
func (r *Settings) Get(ctx context.Context) apiclient.Envelope[models.Settings] {
	return apiclient.Get[models.Settings](ctx, r.c, settingsPath, nil)
}

// Update replaces the settings.
func (r *Settings) Update(ctx context.Context, s models.Settings) apiclient.Envelope[models.Settings] {
	return apiclient.Put[models.Settings](ctx, r.c, settingsPath, s)
}
