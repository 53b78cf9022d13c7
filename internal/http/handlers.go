package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ilMago8/smart-habit-tracker/internal/auth"
	"github.com/ilMago8/smart-habit-tracker/internal/repo"
	"github.com/ilMago8/smart-habit-tracker/internal/service"
)

const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
	Goals    string `json:"goals"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileUpdateRequest struct {
	ID    int64   `json:"id"`
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`
	Goals *string `json:"goals"`
}

type habitCreateRequest struct {
	UserID          int64   `json:"user_id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Color           *string `json:"color"`
	Icon            *string `json:"icon"`
	TargetFrequency *int    `json:"target_frequency"`
}

type habitUpdateRequest struct {
	UserID          int64   `json:"user_id"`
	HabitID         int64   `json:"habit_id"`
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Color           *string `json:"color"`
	Icon            *string `json:"icon"`
	TargetFrequency *int    `json:"target_frequency"`
}

type habitDeleteRequest struct {
	HabitID int64 `json:"habit_id"`
	UserID  int64 `json:"user_id"`
}

type checkRequest struct {
	HabitID int64  `json:"habit_id"`
	UserID  int64  `json:"user_id"`
	Date    string `json:"date"`
}

type resetRequest struct {
	UserID int64 `json:"user_id"`
}

type manageRequest struct {
	Action  string `json:"action"`
	UserID  int64  `json:"user_id"`
	HabitID int64  `json:"habit_id"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.Service.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
		Goals:    req.Goals,
	})
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, token, err := a.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownEmail):
			writeError(w, http.StatusUnauthorized, "No account found with this email. Please register first.")
		case errors.Is(err, service.ErrWrongPassword):
			writeError(w, http.StatusUnauthorized, "Incorrect password. Check your credentials and try again.")
		default:
			a.writeServiceError(w, err, "User not found")
		}
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireQueryUser(w, r)
	if !ok {
		return
	}
	user, err := a.Service.Profile(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !a.requireTokenUser(w, r, req.ID) {
		return
	}
	user, err := a.Service.UpdateProfile(r.Context(), req.ID, req.Name, req.Bio, req.Goals)
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (a *API) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireQueryUser(w, r)
	if !ok {
		return
	}
	habits, err := a.Service.ListHabits(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": habits})
}

func (a *API) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "Valid user_id is required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}
	habit, err := a.Service.CreateHabit(r.Context(), req.UserID, service.HabitInput{
		Name:            req.Name,
		Description:     req.Description,
		Color:           req.Color,
		Icon:            req.Icon,
		TargetFrequency: req.TargetFrequency,
	})
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": habit})
}

func (a *API) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if req.HabitID == 0 {
		writeError(w, http.StatusBadRequest, "Habit ID is required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}
	habit, changed, err := a.Service.UpdateHabit(r.Context(), req.UserID, req.HabitID, service.HabitPatch{
		Name:            req.Name,
		Description:     req.Description,
		Color:           req.Color,
		Icon:            req.Icon,
		TargetFrequency: req.TargetFrequency,
	})
	if err != nil {
		a.writeServiceError(w, err, "Habit not found or access denied")
		return
	}
	message := "Habit updated successfully"
	if !changed {
		message = "No changes made"
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": message,
		"habit":   habit,
	})
}

func (a *API) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	var req habitDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.HabitID == 0 {
		writeError(w, http.StatusBadRequest, "Habit ID is required")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}
	if err := a.Service.DeleteHabit(r.Context(), req.UserID, req.HabitID); err != nil {
		a.writeServiceError(w, err, "Habit not found or access denied")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Habit deleted successfully"})
}

func (a *API) handleDeleteAllHabits(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}
	deleted, err := a.Service.DeleteAllHabits(r.Context(), req.UserID)
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":        "All habits deleted successfully",
		"deleted_habits": deleted,
	})
}

func (a *API) handleToggleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.HabitID == 0 || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "habit_id and user_id are required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}
	completed, date, err := a.Service.ToggleCheck(r.Context(), req.UserID, req.HabitID, req.Date)
	if err != nil {
		a.writeServiceError(w, err, "Habit not found or does not belong to this user")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"data": map[string]any{"completed": completed, "date": date},
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireQueryUser(w, r)
	if !ok {
		return
	}
	report, err := a.Service.WeeklyStats(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": report})
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}
	deleted, err := a.Service.ResetProgress(r.Context(), req.UserID)
	if err != nil {
		a.writeServiceError(w, err, "User not found")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message":        "All progress reset successfully",
		"deleted_checks": deleted,
	})
}

// handleManage is the legacy consolidated endpoint: one POST carrying an
// action discriminator, kept for older clients.
func (a *API) handleManage(w http.ResponseWriter, r *http.Request) {
	var req manageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "Action is required")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if !a.requireTokenUser(w, r, req.UserID) {
		return
	}

	switch req.Action {
	case "delete":
		if req.HabitID == 0 {
			writeError(w, http.StatusBadRequest, "Habit ID is required for delete action")
			return
		}
		if err := a.Service.DeleteHabit(r.Context(), req.UserID, req.HabitID); err != nil {
			a.writeServiceError(w, err, "Habit not found or access denied")
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"message": "Habit deleted successfully"})
	case "reset":
		deleted, err := a.Service.ResetProgress(r.Context(), req.UserID)
		if err != nil {
			a.writeServiceError(w, err, "User not found")
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{
			"message":        "All progress reset successfully",
			"deleted_checks": deleted,
		})
	default:
		writeError(w, http.StatusBadRequest, "Invalid action. Supported actions: delete, reset")
	}
}

// requireQueryUser parses ?user_id and checks it against the token subject.
func (a *API) requireQueryUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "user_id parameter is required")
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id must be a valid number")
		return 0, false
	}
	if !a.requireTokenUser(w, r, userID) {
		return 0, false
	}
	return userID, true
}

// requireTokenUser enforces that the claimed user id matches the
// authenticated token. The explicit user_id stays on the wire for the client,
// but the token is authoritative.
func (a *API) requireTokenUser(w http.ResponseWriter, r *http.Request, userID int64) bool {
	tokenUser, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing authentication token")
		return false
	}
	if tokenUser != userID {
		writeError(w, http.StatusUnauthorized, "Token does not match user")
		return false
	}
	return true
}

// writeServiceError maps service/repo failures onto the error taxonomy.
// Storage errors are logged server-side and reported generically.
func (a *API) writeServiceError(w http.ResponseWriter, err error, notFoundMsg string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, repo.ErrEmailTaken):
		writeError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	default:
		log.Printf("storage error: %v", err)
		writeError(w, http.StatusInternalServerError, "A storage error occurred")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON input")
		return false
	}
	return true
}
