package handler

import (
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/response"
	"wp-pilot/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateConversation opens a chat thread, optionally bound to a site.
func (s *Server) CreateConversation(c *gin.Context) {
	var req services.ConversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	conversation, err := s.ChatService.CreateConversation(c.Request.Context(), s.currentUserID(c), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "conversation.created", conversation)
}

// ListConversations returns the user's chat threads.
func (s *Server) ListConversations(c *gin.Context) {
	conversations, err := s.ChatService.ListConversations(c.Request.Context(), s.currentUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, conversations)
}

// GetConversation returns a thread with its messages.
func (s *Server) GetConversation(c *gin.Context) {
	conversation, err := s.ChatService.GetConversation(c.Request.Context(), s.currentUserID(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, conversation)
}

// DeleteConversation removes a thread. The action ledger survives.
func (s *Server) DeleteConversation(c *gin.Context) {
	if err := s.ChatService.DeleteConversation(c.Request.Context(), s.currentUserID(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	response.SuccessI18n(c, "conversation.deleted", nil)
}

// SendMessage runs one chat turn: dispatch, persist, execute.
func (s *Server) SendMessage(c *gin.Context) {
	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.ErrInvalidJSON)
		return
	}

	result, err := s.ChatService.SendMessage(c.Request.Context(), s.currentUserID(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// ListMessages returns the thread's messages in order.
func (s *Server) ListMessages(c *gin.Context) {
	messages, err := s.ChatService.Messages(c.Request.Context(), s.currentUserID(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	response.Success(c, messages)
}
