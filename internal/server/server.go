// Package server exposes the study-queue operations over HTTP. It is a
// thin wrapper: request decoding, outcome-string mapping and status codes
// live here, scheduling semantics live in internal/queue.
package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/munje/internal/chooser"
	"github.com/example/munje/internal/database"
	"github.com/example/munje/internal/queue"
	"github.com/example/munje/pkg/models"
)

// Handler carries the dependencies of the HTTP handlers
type Handler struct {
	Queues    *queue.Service
	Users     *database.UserRepository
	Questions *database.QuestionRepository
}

// New builds the router with all routes registered
func New(service *queue.Service) *gin.Engine {
	h := &Handler{
		Queues:    service,
		Users:     database.NewUserRepository(),
		Questions: database.NewQuestionRepository(),
	}

	router := gin.Default()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/users", h.CreateUser)
		v1.GET("/users/:id", h.GetUser)

		v1.POST("/questions", h.CreateQuestion)
		v1.GET("/questions", h.ListQuestions)
		v1.GET("/questions/:id", h.GetQuestion)

		v1.POST("/queues", h.CreateQueue)
		v1.GET("/queues/:id/next", h.NextQuestion)
		v1.POST("/queues/:id/answers", h.AnswerQuestion)
		v1.GET("/queues/:id/answers", h.ListAnswers)
		v1.POST("/queues/:id/questions", h.AddQuestion)
	}
	return router
}

// CreateUser registers a user
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Handle         string `json:"handle" binding:"required"`
		Email          string `json:"email" binding:"required"`
		TelegramChatID *int64 `json:"telegram_chat_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle and email are required"})
		return
	}

	user := &models.User{Handle: req.Handle, Email: req.Email, TelegramChatID: req.TelegramChatID}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		log.Printf("Error creating user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser returns a user by id
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error getting user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateQuestion adds a question to the shared pool
func (h *Handler) CreateQuestion(c *gin.Context) {
	var req database.CreateQuestion
	if err := c.ShouldBindJSON(&req); err != nil || req.AuthorID == "" || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "author_id and title are required"})
		return
	}

	question, err := h.Questions.Create(c.Request.Context(), req)
	if err != nil {
		log.Printf("Error creating question: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create question"})
		return
	}
	c.JSON(http.StatusCreated, question)
}

// ListQuestions returns all questions, newest first
func (h *Handler) ListQuestions(c *gin.Context) {
	questions, err := h.Questions.All(c.Request.Context())
	if err != nil {
		log.Printf("Error listing questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list questions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// GetQuestion returns a question by id
func (h *Handler) GetQuestion(c *gin.Context) {
	question, err := h.Questions.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error getting question: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get question"})
		return
	}
	if question == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
		return
	}
	c.JSON(http.StatusOK, question)
}

// CreateQueue finds or creates the user's queue for a starting question.
// Responds 201 when a new queue was created and 200 when an existing one
// was returned.
func (h *Handler) CreateQueue(c *gin.Context) {
	var req struct {
		UserID             string `json:"user_id" binding:"required"`
		StartingQuestionID string `json:"starting_question_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and starting_question_id are required"})
		return
	}

	q, created, err := h.Queues.FindOrCreate(c.Request.Context(), req.UserID, req.StartingQuestionID)
	if err != nil {
		h.renderError(c, err, "failed to create queue")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, q)
}

// NextQuestion returns the next question to study, or when one unlocks
func (h *Handler) NextQuestion(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	upcoming, err := h.Queues.NextQuestion(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.renderError(c, err, "failed to choose the next question")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"question":     upcoming.Question,
		"available_at": upcoming.AvailableAt.Format(time.RFC3339),
		"available_in": upcoming.Availability,
	})
}

// AnswerQuestion records an attempt at a question in the queue. The state
// value is one of the form strings "Correct", "Incorrect" or "Too hard";
// anything else is rejected before it reaches the scheduler.
func (h *Handler) AnswerQuestion(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id" binding:"required"`
		QuestionID string `json:"question_id" binding:"required"`
		State      string `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, question_id and state are required"})
		return
	}

	outcome, err := queue.OutcomeFrom(req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be one of Correct, Incorrect, Too hard"})
		return
	}

	answer, err := h.Queues.AnswerQuestion(c.Request.Context(), req.UserID, c.Param("id"), req.QuestionID, outcome)
	if err != nil {
		h.renderError(c, err, "failed to record answer")
		return
	}
	c.JSON(http.StatusCreated, answer)
}

// ListAnswers returns the queue's attempt history
func (h *Handler) ListAnswers(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	answers, err := h.Queues.Answers(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.renderError(c, err, "failed to list answers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

// AddQuestion links another question into the queue
func (h *Handler) AddQuestion(c *gin.Context) {
	var req struct {
		UserID     string `json:"user_id" binding:"required"`
		QuestionID string `json:"question_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and question_id are required"})
		return
	}

	if err := h.Queues.AddQuestion(c.Request.Context(), req.UserID, c.Param("id"), req.QuestionID); err != nil {
		h.renderError(c, err, "failed to add question")
		return
	}
	c.Status(http.StatusNoContent)
}

// renderError maps service errors to status codes. A scheduling fault is
// never rendered as an empty queue: the user sees "try again".
func (h *Handler) renderError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, queue.ErrQueueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "queue not found"})
	case errors.Is(err, queue.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
	case errors.Is(err, queue.ErrUnknownOutcome):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown outcome"})
	case errors.Is(err, chooser.ErrNoChoices):
		log.Printf("Error: empty candidate set: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not choose a question, try again"})
	default:
		log.Printf("Error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
