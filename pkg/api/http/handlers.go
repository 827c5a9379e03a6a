package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// ChatRequest represents a chat completion request
type ChatRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Messages  []chat.Message `json:"messages" binding:"required"`
	Config    chat.Config    `json:"config" binding:"required"`
}

// ContinueChatRequest represents a chat continuation after tool execution
type ContinueChatRequest struct {
	SessionID   string                `json:"session_id,omitempty"`
	Messages    []chat.Message        `json:"messages" binding:"required"`
	ToolResults []chat.ToolInvocation `json:"tool_results" binding:"required"`
	Config      chat.Config           `json:"config" binding:"required"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	SessionID string         `json:"session_id"`
	Provider  string         `json:"provider"`
	Response  *chat.Response `json:"response"`
}

// JobSubmitRequest represents an asynchronous job submission
type JobSubmitRequest struct {
	Messages []chat.Message `json:"messages" binding:"required"`
	Config   chat.Config    `json:"config" binding:"required"`
}

// JobSubmitResponse represents an asynchronous job submission response
type JobSubmitResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	workersHealthy := true
	if s.health != nil {
		workersHealthy = s.health.IsHealthy()
	}

	status := "healthy"
	code := http.StatusOK
	if !workersHealthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks": gin.H{
			"provider": s.gateway.Provider(),
			"workers":  workersHealthy,
		},
	})
}

// handleChat handles a synchronous chat completion
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	response, sessionID, err := s.gateway.Chat(c.Request.Context(), req.SessionID, req.Messages, req.Config)
	if err != nil {
		s.providerError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		SessionID: sessionID,
		Provider:  s.gateway.Provider(),
		Response:  response,
	})
}

// handleContinueChat handles a continuation after tool execution
func (s *Server) handleContinueChat(c *gin.Context) {
	var req ContinueChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	response, sessionID, err := s.gateway.ContinueChat(c.Request.Context(), req.SessionID, req.Messages, req.ToolResults, req.Config)
	if err != nil {
		s.providerError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		SessionID: sessionID,
		Provider:  s.gateway.Provider(),
		Response:  response,
	})
}

// handleStreamChat handles a streaming chat completion over SSE
func (s *Server) handleStreamChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	stream, sessionID, err := s.gateway.StreamChat(c.Request.Context(), req.SessionID, req.Messages, req.Config)
	if err != nil {
		s.providerError(c, err)
		return
	}
	defer stream.Close()

	s.writeSSE(c, sessionID, stream)
}

// handleResumeStream resumes an interrupted streamed response over SSE
func (s *Server) handleResumeStream(c *gin.Context) {
	sessionID := c.Param("id")

	stream, err := s.gateway.ResumeStream(c.Request.Context(), sessionID)
	if err != nil {
		s.providerError(c, err)
		return
	}
	defer stream.Close()

	s.writeSSE(c, sessionID, stream)
}

// writeSSE pumps stream events to the client as server-sent events
func (s *Server) writeSSE(c *gin.Context, sessionID string, stream chat.Stream) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Session-Id", sessionID)
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		event, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				return
			}
			providerErr := chat.AsError(err)
			s.logger.Error("stream failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			s.writeSSEEvent(c, "error", providerErr)
			return
		}

		switch {
		case event.Delta != nil:
			s.writeSSEEvent(c, "delta", event.Delta)
		case event.Finish != nil:
			s.writeSSEEvent(c, "finish", event.Finish)
		}
	}
}

func (s *Server) writeSSEEvent(c *gin.Context, name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal SSE event", zap.Error(err))
		return
	}
	c.Writer.WriteString("event: " + name + "\n")
	c.Writer.WriteString("data: " + string(data) + "\n\n")
	c.Writer.Flush()
}

// handleListSessions handles listing stored sessions
func (s *Server) handleListSessions(c *gin.Context) {
	ids, err := s.gateway.ListSessions(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to list sessions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": ids,
		"total":    len(ids),
	})
}

// handleGetSession handles getting a session transcript
func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.gateway.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Session not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// handleDeleteSession handles deleting a session transcript
func (s *Server) handleDeleteSession(c *gin.Context) {
	sessionID := c.Param("id")

	if err := s.gateway.DeleteSession(c.Request.Context(), sessionID); err != nil {
		if chatErr := chat.AsError(err); chatErr != nil && chatErr.Code == chat.ErrorInvalidRequest {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "NOT_FOUND",
					Message: chatErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: "Failed to delete session",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"status":     "deleted",
	})
}

// handleSubmitJob handles asynchronous job submission
func (s *Server) handleSubmitJob(c *gin.Context) {
	var req JobSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	jobID, err := s.gateway.SubmitJob(c.Request.Context(), req.Messages, req.Config)
	if err != nil {
		s.providerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, JobSubmitResponse{
		JobID:       jobID,
		Status:      "pending",
		SubmittedAt: time.Now().Format(time.RFC3339),
	})
}

// handleGetJob handles getting an asynchronous job
func (s *Server) handleGetJob(c *gin.Context) {
	job, err := s.gateway.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Job not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// badRequest writes a 400 response for malformed request bodies
func (s *Server) badRequest(c *gin.Context, err error) {
	s.logger.Error("invalid request", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

// providerError maps a gateway error to an HTTP response
func (s *Server) providerError(c *gin.Context, err error) {
	providerErr := chat.AsError(err)

	var details interface{}
	if providerErr.ProviderErrorJSON != "" {
		details = json.RawMessage(providerErr.ProviderErrorJSON)
	}

	c.JSON(statusFromCode(providerErr.Code), ErrorResponse{
		Error: ErrorDetail{
			Code:    string(providerErr.Code),
			Message: providerErr.Message,
			Details: details,
		},
	})
}

// statusFromCode maps an error code to an HTTP status
func statusFromCode(code chat.ErrorCode) int {
	switch code {
	case chat.ErrorInvalidRequest:
		return http.StatusBadRequest
	case chat.ErrorAuthenticationFailed:
		return http.StatusUnauthorized
	case chat.ErrorRateLimitExceeded:
		return http.StatusTooManyRequests
	case chat.ErrorUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}
