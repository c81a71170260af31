package api

import (
	"errors"
	"net/http"

	"pokelearn/web/internal/domain"
	"pokelearn/web/internal/service"
)

type authPage struct {
	Email    string
	FullName string
	Message  string
	Success  bool
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", authPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login.html", authPage{Message: "Invalid form submission"})
		return
	}
	email := r.PostFormValue("email")

	sessionID, err := s.auth.SignIn(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		s.render(w, statusFor(err), "login.html", authPage{Email: email, Message: domain.UserMessage(err)})
		return
	}

	s.setSessionCookie(w, sessionID)
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "register.html", authPage{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "register.html", authPage{Message: "Invalid form submission"})
		return
	}

	in := service.RegisterInput{
		FullName:        r.PostFormValue("full_name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	page := authPage{Email: in.Email, FullName: in.FullName}

	result, err := s.auth.SignUp(r.Context(), in)
	if err != nil {
		page.Message = domain.UserMessage(err)
		if page.Message == "" {
			page.Message = "An error occurred during registration"
		}
		s.render(w, statusFor(err), "register.html", page)
		return
	}

	if result.NeedsConfirmation {
		page.Message = result.Message
		page.Success = true
		s.render(w, http.StatusOK, "register.html", page)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionID(r); id != "" {
		// The local session is gone either way; provider errors are logged.
		_ = s.auth.SignOut(r.Context(), id)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func statusFor(err error) int {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		if authErr.Status >= 400 && authErr.Status < 500 {
			return authErr.Status
		}
		return http.StatusUnauthorized
	}
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
