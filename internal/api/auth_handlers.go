package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/polyrhythmd/polyrhythmd-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a new account and logs it in. The session token is returned in the body and set as a cookie.",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and issues a fresh session token, invalidating any previous one.",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodDelete,
		Path:          "/api/auth/logout",
		Summary:       "Logout",
		Description:   "Revokes the current session token and clears the session cookie. Safe to call without a valid session.",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "current-user",
		Method:      http.MethodGet,
		Path:        "/api/user",
		Summary:     "Current user",
		Description: "Returns the user the request's session token resolves to.",
		Tags:        []string{"Authentication"},
	}, s.handleCurrentUser)
}

// === DTOs ===

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body service.RegisterRequest
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body service.LoginRequest
}

// AuthOutput wraps the auth response and sets the session cookie.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      service.AuthResponse
}

// LogoutInput wraps the logout credentials for Huma.
type LogoutInput struct {
	SessionCredentials
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
}

// CurrentUserInput wraps the credentials for Huma.
type CurrentUserInput struct {
	SessionCredentials
}

// CurrentUserResponse identifies the logged-in user.
type CurrentUserResponse struct {
	ID       string `json:"id" doc:"User ID"`
	Username string `json:"username" doc:"Username"`
}

// CurrentUserOutput wraps the current user response for Huma.
type CurrentUserOutput struct {
	Body CurrentUserResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.auth.Register(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		SetCookie: s.sessionCookie(resp.Token),
		Body:      *resp,
	}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.auth.Login(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		SetCookie: s.sessionCookie(resp.Token),
		Body:      *resp,
	}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*LogoutOutput, error) {
	if err := s.auth.Logout(ctx, input.token()); err != nil {
		return nil, err
	}

	return &LogoutOutput{SetCookie: s.expiredSessionCookie()}, nil
}

func (s *Server) handleCurrentUser(ctx context.Context, input *CurrentUserInput) (*CurrentUserOutput, error) {
	user, err := s.requireUser(ctx, input.SessionCredentials)
	if err != nil {
		return nil, err
	}

	return &CurrentUserOutput{
		Body: CurrentUserResponse{
			ID:       user.ID,
			Username: user.Username,
		},
	}, nil
}

// sessionCookie builds the session cookie for a freshly issued token.
// Secure is only set in production so local development over plain
// HTTP keeps working.
func (s *Server) sessionCookie(token string) http.Cookie {
	return http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

// expiredSessionCookie builds a cookie that removes the session cookie.
func (s *Server) expiredSessionCookie() http.Cookie {
	return http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
