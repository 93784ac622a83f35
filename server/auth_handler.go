package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voxshare/core/auth"
	"voxshare/logger"
	"voxshare/model"
	"voxshare/repository"
)

// SignupRequest represents the registration request body
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest represents the login request body
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse pairs an issued token with the public user record.
type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SignupHandler handles user registration requests
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Signup] failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Signup] username or email already exists",
				logger.String("username", req.Username),
				logger.String("email", req.Email))
			writeError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		logger.Error("[Signup] failed to create user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID = userID

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		logger.Error("[Signup] failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("[Signup] user registered", logger.String("username", user.Username))
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// SigninHandler handles user login requests
func (h *APIHandler) SigninHandler(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("[Signin] failed to query user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		logger.Warn("[Signin] user not found", logger.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("[Signin] password mismatch", logger.String("email", req.Email))
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("[Signin] failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Signin] login successful", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// MeHandler returns the authenticated user's own record.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Me] failed to query user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfileRequest carries the editable profile fields. Omitted fields
// are left unchanged.
type UpdateProfileRequest struct {
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// UpdateProfileHandler updates the authenticated user's own record.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.userRepo.UpdateProfile(userID, req.Username, req.ProfilePicture); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			writeError(w, http.StatusConflict, "Username already taken")
			return
		}
		logger.Error("[Profile] failed to update profile", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil || user == nil {
		logger.Error("[Profile] failed to reload user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		// Add user info to the request context
		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
