package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/auth"
	"github.com/YouWantToPinch/dashboard-api/internal/blob"
	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/resource"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
)

// userSummary is the user shape returned alongside a session token.
type userSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Theme  string    `json:"theme"`
	Avatar string    `json:"avatar"`
}

// userProfile is what the account owner sees of themselves.
type userProfile struct {
	userSummary
	Preferences map[string]any `json:"preferences"`
}

func summarize(u *model.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Theme: u.Theme, Avatar: u.Avatar}
}

func profileOf(u *model.User) userProfile {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	return userProfile{userSummary: summarize(u), Preferences: prefs}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (cfg *APIConfig) endpRegisterUser(w http.ResponseWriter, r *http.Request) {
	type rqSchema struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	rqPayload, err := decodePayload[rqSchema](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}
	rqPayload.Name = strings.TrimSpace(rqPayload.Name)
	rqPayload.Email = normalizeEmail(rqPayload.Email)

	var fieldErrs []resource.FieldError
	fieldErrs = append(fieldErrs, cfg.validate.Var("name", rqPayload.Name, "min=2")...)
	fieldErrs = append(fieldErrs, cfg.validate.Var("email", rqPayload.Email, "required,email")...)
	fieldErrs = append(fieldErrs, cfg.validate.Var("password", rqPayload.Password, "min=6")...)
	if len(fieldErrs) > 0 {
		respondWithValidation(w, &resource.ValidationError{Fields: fieldErrs})
		return
	}

	hashedPass, err := auth.HashPassword(rqPayload.Password)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error registering user", err)
		return
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	id := uuid.New()
	user := &model.User{
		Base:         model.Base{ID: id, Owner: id, CreatedAt: now, UpdatedAt: now},
		Name:         rqPayload.Name,
		Email:        rqPayload.Email,
		PasswordHash: hashedPass,
		Theme:        "light",
		Preferences:  map[string]any{},
	}
	if err := cfg.store.Users.Insert(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondWithError(w, http.StatusBadRequest, "User already exists with this email", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Error registering user", err)
		return
	}

	cfg.respondWithSession(w, http.StatusCreated, user)
}

func (cfg *APIConfig) endpLoginUser(w http.ResponseWriter, r *http.Request) {
	type rqSchema struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	rqPayload, err := decodePayload[rqSchema](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}
	rqPayload.Email = normalizeEmail(rqPayload.Email)

	var fieldErrs []resource.FieldError
	fieldErrs = append(fieldErrs, cfg.validate.Var("email", rqPayload.Email, "required,email")...)
	fieldErrs = append(fieldErrs, cfg.validate.Var("password", rqPayload.Password, "required")...)
	if len(fieldErrs) > 0 {
		respondWithValidation(w, &resource.ValidationError{Fields: fieldErrs})
		return
	}

	user, err := cfg.store.Users.FindOne(r.Context(), "email", rqPayload.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Error logging in", err)
		return
	}

	match, err := auth.CheckPasswordHash(rqPayload.Password, user.PasswordHash)
	if err != nil || !match {
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials", err)
		return
	}

	cfg.respondWithSession(w, http.StatusOK, user)
}

func (cfg *APIConfig) respondWithSession(w http.ResponseWriter, code int, user *model.User) {
	token, err := cfg.tokens.Issue(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error issuing token", err)
		return
	}
	respondWithSuccess(w, code, envelope{"token": token, "user": summarize(user)})
}

// currentUser loads the authenticated user, answering the request itself
// when that fails.
func (cfg *APIConfig) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := cfg.store.Users.Get(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusUnauthorized, "Not authorized, user not found", err)
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, "Error fetching user data", err)
		return nil, false
	}
	return user, true
}

// saveUser bumps updatedAt and replaces the stored user.
func (cfg *APIConfig) saveUser(r *http.Request, user *model.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(user.UpdatedAt) {
		now = user.UpdatedAt.Add(time.Millisecond)
	}
	user.UpdatedAt = now
	return cfg.store.Users.Replace(r.Context(), user)
}

func (cfg *APIConfig) endpGetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := cfg.currentUser(w, r)
	if !ok {
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{"user": profileOf(user)})
}

func (cfg *APIConfig) endpUpdateProfile(w http.ResponseWriter, r *http.Request) {
	type rqSchema struct {
		Name        string         `json:"name"`
		Theme       string         `json:"theme"`
		Preferences map[string]any `json:"preferences"`
	}

	rqPayload, err := decodePayload[rqSchema](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}
	rqPayload.Name = strings.TrimSpace(rqPayload.Name)

	var fieldErrs []resource.FieldError
	if rqPayload.Name != "" {
		fieldErrs = append(fieldErrs, cfg.validate.Var("name", rqPayload.Name, "min=2")...)
	}
	if rqPayload.Theme != "" {
		fieldErrs = append(fieldErrs, cfg.validate.Var("theme", rqPayload.Theme, "oneof=light dark")...)
	}
	if len(fieldErrs) > 0 {
		respondWithValidation(w, &resource.ValidationError{Fields: fieldErrs})
		return
	}

	user, ok := cfg.currentUser(w, r)
	if !ok {
		return
	}
	if rqPayload.Name != "" {
		user.Name = rqPayload.Name
	}
	if rqPayload.Theme != "" {
		user.Theme = rqPayload.Theme
	}
	if rqPayload.Preferences != nil {
		user.Preferences = rqPayload.Preferences
	}
	if err := cfg.saveUser(r, user); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error updating profile", err)
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{"user": profileOf(user)})
}

func (cfg *APIConfig) endpChangePassword(w http.ResponseWriter, r *http.Request) {
	type rqSchema struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	rqPayload, err := decodePayload[rqSchema](w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, errInvalidPayload.Error(), err)
		return
	}

	var fieldErrs []resource.FieldError
	fieldErrs = append(fieldErrs, cfg.validate.Var("currentPassword", rqPayload.CurrentPassword, "required")...)
	fieldErrs = append(fieldErrs, cfg.validate.Var("newPassword", rqPayload.NewPassword, "min=6")...)
	if len(fieldErrs) > 0 {
		respondWithValidation(w, &resource.ValidationError{Fields: fieldErrs})
		return
	}

	user, ok := cfg.currentUser(w, r)
	if !ok {
		return
	}
	match, err := auth.CheckPasswordHash(rqPayload.CurrentPassword, user.PasswordHash)
	if err != nil || !match {
		respondWithError(w, http.StatusUnauthorized, "Current password is incorrect", err)
		return
	}

	hashedPass, err := auth.HashPassword(rqPayload.NewPassword)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error changing password", err)
		return
	}
	user.PasswordHash = hashedPass
	if err := cfg.saveUser(r, user); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error changing password", err)
		return
	}
	respondWithSuccess(w, http.StatusOK, envelope{"message": "Password changed successfully"})
}

func (cfg *APIConfig) endpUploadAvatar(w http.ResponseWriter, r *http.Request) {
	// leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, cfg.avatars.MaxBytes()+1<<20)
	file, _, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Please upload an image file", err)
		return
	}
	defer file.Close()

	avatarPath, err := cfg.avatars.Save(file)
	switch {
	case errors.Is(err, blob.ErrTooLarge):
		msg := fmt.Sprintf("File too large, maximum size is %dMB", cfg.avatars.MaxBytes()>>20)
		respondWithError(w, http.StatusBadRequest, msg, err)
		return
	case errors.Is(err, blob.ErrUnsupported):
		respondWithError(w, http.StatusBadRequest, "Only image files are allowed (jpeg, jpg, png, gif, webp)", err)
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, "Error uploading avatar", err)
		return
	}

	user, ok := cfg.currentUser(w, r)
	if !ok {
		_ = cfg.avatars.Remove(avatarPath)
		return
	}
	oldAvatar := user.Avatar
	user.Avatar = avatarPath
	if err := cfg.saveUser(r, user); err != nil {
		_ = cfg.avatars.Remove(avatarPath)
		respondWithError(w, http.StatusInternalServerError, "Error uploading avatar", err)
		return
	}
	if err := cfg.avatars.Remove(oldAvatar); err != nil {
		cfg.logger.Warn("could not remove previous avatar", "path", oldAvatar, "err", err)
	}

	respondWithSuccess(w, http.StatusOK, envelope{
		"message": "Avatar uploaded successfully",
		"avatar":  avatarPath,
	})
}
