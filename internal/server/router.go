package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rangolabs/tracker/backend/internal/users"
	"github.com/rangolabs/tracker/backend/internal/workouts"
	"go.uber.org/zap"
)

const (
	userIDContextKey    = "tracker_user_id"
	requestIDContextKey = "tracker_request_id"
	requestIDHeader     = "X-Request-ID"
)

var (
	errMissingTokenManager    = errors.New("token manager dependency required")
	errMissingUsersService    = errors.New("users service dependency required")
	errMissingWorkoutsService = errors.New("workouts service dependency required")
	errInvalidAuthorization   = errors.New("authorization header missing or invalid")
)

// SessionTokenManager issues and validates session tokens.
type SessionTokenManager interface {
	IssueToken(ctx context.Context, userID uint, username string, rememberMe bool) (string, int64, error)
	ValidateToken(token string) (uint, error)
}

// Dependencies wires the HTTP layer to the engine services.
type Dependencies struct {
	TokenManager    SessionTokenManager
	UsersService    *users.Service
	WorkoutsService *workouts.Service
	Logger          *zap.Logger
}

// NewHTTPHandler builds the gin router with all tracker routes mounted.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.UsersService == nil {
		return nil, errMissingUsersService
	}
	if deps.WorkoutsService == nil {
		return nil, errMissingWorkoutsService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(attachRequestID)
	router.Use(corsMiddleware())

	handler := &httpHandler{
		tokens:   deps.TokenManager,
		users:    deps.UsersService,
		workouts: deps.WorkoutsService,
		logger:   logger,
	}

	router.POST("/register", handler.handleRegister)
	router.POST("/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.PUT("/change_password", handler.handleChangePassword)
	protected.GET("/workouts", handler.handleListWorkouts)
	protected.POST("/workout/create", handler.handleCreateWorkout)
	protected.DELETE("/workout/:workout_id", handler.handleDeleteWorkout)
	protected.POST("/workout/complete", handler.handleToggleWorkout)
	protected.POST("/workout/:workout_id/exercise", handler.handleCreateExercise)
	protected.POST("/exercise/set/complete", handler.handleToggleSet)
	protected.GET("/workout/:workout_id/completion-status", handler.handleCompletionStatus)

	return router, nil
}

type httpHandler struct {
	tokens   SessionTokenManager
	users    *users.Service
	workouts *workouts.Service
	logger   *zap.Logger
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

func attachRequestID(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		if generated, err := uuid.NewV7(); err == nil {
			requestID = generated.String()
		}
	}
	c.Set(requestIDContextKey, requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		// An expired token is routine client behavior, not a fault.
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err), zap.String("request_id", c.GetString(requestIDContextKey)))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok && userID != 0
}

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), request.Username, request.Password)
	switch {
	case errors.Is(err, users.ErrInvalidUsername):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_username",
			"message": "Username must be 6-20 characters: english letters, digits, and underscores only",
		})
	case errors.Is(err, users.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_password",
			"message": "Password must be 8-32 characters and include an uppercase letter, a lowercase letter, a digit, and a special character",
		})
	case errors.Is(err, users.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username_taken", "message": "That username is already taken"})
	case err != nil:
		h.logger.Error("registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
	default:
		c.JSON(http.StatusCreated, gin.H{"success": true, "user_id": user.UserID})
	}
}

type loginPayload struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), request.Username, request.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueToken(c.Request.Context(), user.UserID, user.Username, request.RememberMe)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"token_type": "Bearer",
		"expires_in": expiresIn,
	})
}

type changePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *httpHandler) handleChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request changePasswordPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), userID, request.CurrentPassword, request.NewPassword)
	switch {
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_credentials", "message": "Old password is incorrect"})
	case errors.Is(err, users.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_password",
			"message": "Password must be 8-32 characters and include an uppercase letter, a lowercase letter, a digit, and a special character",
		})
	case err != nil:
		h.logger.Error("password change failed", zap.Error(err), zap.Uint("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password_change_failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
	}
}

type workoutResponse struct {
	WorkoutID uint   `json:"workout_id"`
	Name      string `json:"workout_name"`
	CreatedAt int64  `json:"created_at_s"`
}

func (h *httpHandler) handleListWorkouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.workouts.ListWorkouts(c.Request.Context(), userID)
	if err != nil {
		h.respondEngineError(c, "list workouts failed", err)
		return
	}

	response := make([]workoutResponse, 0, len(result))
	for _, workout := range result {
		response = append(response, workoutResponse{
			WorkoutID: workout.WorkoutID,
			Name:      workout.Name,
			CreatedAt: workout.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"workouts": response})
}

type createWorkoutPayload struct {
	WorkoutName string `json:"workout_name"`
}

func (h *httpHandler) handleCreateWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request createWorkoutPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	workout, err := h.workouts.CreateWorkout(c.Request.Context(), userID, request.WorkoutName)
	if err != nil {
		h.respondEngineError(c, "create workout failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "workout_id": workout.WorkoutID})
}

func (h *httpHandler) handleDeleteWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	workoutID, ok := pathID(c, "workout_id")
	if !ok {
		return
	}

	if err := h.workouts.DeleteWorkout(c.Request.Context(), userID, workoutID); err != nil {
		h.respondEngineError(c, "delete workout failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type toggleWorkoutPayload struct {
	WorkoutID uint `json:"workout_id"`
}

func (h *httpHandler) handleToggleWorkout(c *gin.Context) {
	var request toggleWorkoutPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.WorkoutID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	completed, err := h.workouts.ToggleWorkoutCompletion(c.Request.Context(), request.WorkoutID)
	if err != nil {
		h.respondEngineError(c, "toggle workout completion failed", err)
		return
	}

	message := "Workout completion removed for today"
	if completed {
		message = "Workout marked as completed for today"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "completed": completed, "message": message})
}

type setPayload struct {
	SetNumber int      `json:"set_number"`
	Reps      int      `json:"reps"`
	Weight    *float64 `json:"weight"`
}

type createExercisePayload struct {
	ExerciseName string       `json:"exercise_name"`
	Sets         []setPayload `json:"sets"`
}

type setResponse struct {
	SetID     uint     `json:"set_id"`
	SetNumber int      `json:"set_number"`
	Reps      int      `json:"reps"`
	Weight    *float64 `json:"weight"`
}

func (h *httpHandler) handleCreateExercise(c *gin.Context) {
	workoutID, ok := pathID(c, "workout_id")
	if !ok {
		return
	}

	var request createExercisePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	sets := make([]workouts.SetInput, 0, len(request.Sets))
	for _, set := range request.Sets {
		sets = append(sets, workouts.SetInput{SetNumber: set.SetNumber, Reps: set.Reps, Weight: set.Weight})
	}

	exercise, err := h.workouts.CreateExercise(c.Request.Context(), workoutID, request.ExerciseName, sets)
	if err != nil {
		h.respondEngineError(c, "create exercise failed", err)
		return
	}

	committed := make([]setResponse, 0, len(exercise.Sets))
	for _, set := range exercise.Sets {
		committed = append(committed, setResponse{
			SetID:     set.SetID,
			SetNumber: set.SetNumber,
			Reps:      set.Reps,
			Weight:    set.Weight,
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"exercise_id":   exercise.ExerciseID,
			"exercise_name": exercise.Name,
			"sets":          committed,
		},
	})
}

type toggleSetPayload struct {
	WorkoutID  uint `json:"workout_id"`
	ExerciseID uint `json:"exercise_id"`
	SetID      uint `json:"set_id"`
}

func (h *httpHandler) handleToggleSet(c *gin.Context) {
	var request toggleSetPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		request.WorkoutID == 0 || request.ExerciseID == 0 || request.SetID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	completed, err := h.workouts.ToggleSetCompletion(c.Request.Context(), request.WorkoutID, request.ExerciseID, request.SetID)
	if err != nil {
		h.respondEngineError(c, "toggle set completion failed", err)
		return
	}

	message := "Exercise set completion removed for today"
	if completed {
		message = "Exercise set marked as completed for today"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "completed": completed, "message": message})
}

func (h *httpHandler) handleCompletionStatus(c *gin.Context) {
	workoutID, ok := pathID(c, "workout_id")
	if !ok {
		return
	}

	status, err := h.workouts.CompletionStatus(c.Request.Context(), workoutID)
	if err != nil {
		h.respondEngineError(c, "completion status failed", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return 0, false
	}
	return uint(value), true
}

// respondEngineError maps engine errors to stable status codes. Internal
// failure details stay in the log.
func (h *httpHandler) respondEngineError(c *gin.Context, message string, err error) {
	var validationErr *workouts.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": validationErr.Reason})
	case errors.Is(err, workouts.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, workouts.ErrInvalidAssociation):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid_association"})
	case errors.Is(err, workouts.ErrPastDateImmutable):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "past_date_immutable",
			"message": "Completion status can only be changed on the day it was recorded",
		})
	case errors.Is(err, workouts.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		h.logger.Error(message, zap.Error(err), zap.String("request_id", c.GetString(requestIDContextKey)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
