package api

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"intelhub/internal/core"
	"intelhub/internal/logger"
	"intelhub/internal/service"
)

const sessionName = "intelhub-session"

type contextKey int

const sessionContextKey contextKey = iota

type AuthHandler struct {
	authSvc   *service.AuthService
	store     *sessions.CookieStore
	templates *template.Template
}

func NewAuthHandler(authSvc *service.AuthService, sessionKey string, templates *template.Template) *AuthHandler {
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   false, // Set to true if HTTPS
		SameSite: http.SameSiteLaxMode,
	}

	return &AuthHandler{
		authSvc:   authSvc,
		store:     store,
		templates: templates,
	}
}

func (h *AuthHandler) SetupPage(w http.ResponseWriter, r *http.Request) {
	hasUsers, _ := h.authSvc.HasUsers()
	if hasUsers {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.render(w, r, "setup.html", nil)
}

func (h *AuthHandler) DoSetup(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.authSvc.SetupAdmin(username, password); err != nil {
		if errors.Is(err, core.ErrSetupDone) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		h.render(w, r, "setup.html", map[string]interface{}{"Error": err.Error()})
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	hasUsers, _ := h.authSvc.HasUsers()
	if !hasUsers {
		http.Redirect(w, r, "/setup", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", nil)
}

func (h *AuthHandler) DoLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	sess, err := h.authSvc.Authenticate(username, password)
	if err != nil {
		// One message for both unknown user and bad password, so login
		// responses don't reveal which usernames exist.
		logger.Info.Printf("failed login for %q: %v", username, err)
		h.render(w, r, "login.html", map[string]interface{}{"Error": "Invalid username or password"})
		return
	}

	session, _ := h.store.Get(r, sessionName)
	session.Values["username"] = sess.Username
	session.Values["role"] = sess.Role
	session.Save(r, w)

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", nil)
}

func (h *AuthHandler) DoRegister(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	_, err := h.authSvc.Register(username, password, core.RoleUser)
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		h.render(w, r, "register.html", map[string]interface{}{"Error": "Username and password are required"})
		return
	case errors.Is(err, core.ErrUsernameTaken):
		h.render(w, r, "register.html", map[string]interface{}{"Error": "That username is already taken"})
		return
	case err != nil:
		logger.Error.Printf("registration failed for %q: %v", username, err)
		http.Error(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	session.Save(r, w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// SessionFrom returns the authenticated identity placed in the request context
// by RequireUser, or nil for anonymous requests.
func SessionFrom(r *http.Request) *core.Session {
	sess, _ := r.Context().Value(sessionContextKey).(*core.Session)
	return sess
}

// RequireUser gates pages behind a valid login and passes the session identity
// down through the request context.
func (h *AuthHandler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.store.Get(r, sessionName)
		username, ok := session.Values["username"].(string)
		if !ok || username == "" {
			hasUsers, _ := h.authSvc.HasUsers()
			if !hasUsers && r.URL.Path != "/setup" {
				http.Redirect(w, r, "/setup", http.StatusFound)
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		role, _ := session.Values["role"].(string)

		ctx := context.WithValue(r.Context(), sessionContextKey, &core.Session{Username: username, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin restricts a route to admin sessions. Must run inside RequireUser.
func (h *AuthHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r)
		if sess == nil || !sess.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, tmplName string, data interface{}) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}

	payload := map[string]interface{}{
		"Data":      data,
		"CSRFField": csrf.TemplateField(r),
	}
	if err := h.templates.ExecuteTemplate(w, tmplName, payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
