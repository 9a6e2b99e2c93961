package services

import (
	"context"
	"encoding/json"

	"wp-pilot/internal/encryption"
	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/models"
	"wp-pilot/internal/provider"
	"wp-pilot/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProviderSelector resolves AI backends. *provider.Factory satisfies it.
type ProviderSelector interface {
	Select(name string) (provider.Provider, *app_errors.APIError)
	Infos() []provider.Info
}

// ConversationCreateRequest opens a new chat thread, optionally bound to a site.
type ConversationCreateRequest struct {
	SiteID *string `json:"site_id"`
	Title  string  `json:"title"`
}

// SendMessageRequest is one user turn. Provider picks a backend explicitly;
// empty means the configured default.
type SendMessageRequest struct {
	Content  string `json:"content" binding:"required"`
	Provider string `json:"provider"`
}

// ChatResult is the outcome of one user turn: both persisted messages plus
// the ledger rows for every executed action. The user turn is included so
// clients receive its id and timestamp without a follow-up fetch.
type ChatResult struct {
	UserMessage *models.Message `json:"user_message"`
	Message     *models.Message `json:"message"`
	Actions     []models.Action `json:"actions"`
}

// ChatService runs the conversation pipeline: persist the user turn,
// dispatch to a provider, persist the reply, then execute declared actions.
type ChatService struct {
	db         *gorm.DB
	encryption encryption.Service
	providers  ProviderSelector
	executor   *ActionExecutor
}

func NewChatService(db *gorm.DB, enc encryption.Service, providers ProviderSelector, executor *ActionExecutor) *ChatService {
	return &ChatService{db: db, encryption: enc, providers: providers, executor: executor}
}

// CreateConversation opens a thread. A bound site must belong to the user.
func (s *ChatService) CreateConversation(ctx context.Context, userID string, req ConversationCreateRequest) (*models.Conversation, error) {
	if req.SiteID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Site{}).
			Where("id = ? AND user_id = ?", *req.SiteID, userID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, app_errors.NewNotFoundError("site not found")
		}
	}

	title := req.Title
	if title == "" {
		title = "New conversation"
	}
	conversation := &models.Conversation{
		UserID: userID,
		SiteID: req.SiteID,
		Title:  title,
	}
	if err := s.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversations returns the user's threads, most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// GetConversation returns one thread with its messages in order.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// DeleteConversation removes a thread and its messages. Action ledger rows
// survive with their message reference nulled.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.Conversation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return app_errors.ErrResourceNotFound
	}
	return nil
}

// SendMessage runs one full user turn. The user message is persisted before
// dispatch, so a provider failure still leaves the user's side of the
// conversation intact.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID string, req SendMessageRequest) (*ChatResult, error) {
	conversation, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	userMessage := &models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleUser,
		Content:        req.Content,
	}
	if err := s.db.WithContext(ctx).Create(userMessage).Error; err != nil {
		return nil, err
	}

	site, siteContext, err := s.loadSiteContext(ctx, conversation)
	if err != nil {
		return nil, err
	}

	p, apiErr := s.providers.Select(req.Provider)
	if apiErr != nil {
		return nil, apiErr
	}

	aiResponse, err := p.ProcessCommand(ctx, req.Content, siteContext)
	if err != nil {
		return nil, err
	}

	assistantMessage := &models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleAssistant,
		Content:        aiResponse.Message,
		Metadata:       buildMessageMetadata(p.Name(), aiResponse.Actions),
	}
	if err := s.db.WithContext(ctx).Create(assistantMessage).Error; err != nil {
		return nil, err
	}

	result := &ChatResult{UserMessage: userMessage, Message: assistantMessage, Actions: []models.Action{}}
	if site != nil && len(aiResponse.Actions) > 0 {
		secret, decErr := s.encryption.Decrypt(site.EncryptedPassword)
		if decErr != nil {
			logrus.WithError(decErr).WithField("site", site.ID).Error("Failed to decrypt site credential")
			return nil, app_errors.ErrCredentialAccess
		}

		declared := make([]DeclaredAction, 0, len(aiResponse.Actions))
		for _, a := range aiResponse.Actions {
			declared = append(declared, DeclaredAction{
				Type:        a.Type,
				Description: a.Description,
				Params:      a.Params,
			})
		}
		result.Actions = s.executor.ExecuteAll(ctx, site, secret, &assistantMessage.ID, declared)
	}

	s.touchConversation(ctx, conversation, req.Content)
	return result, nil
}

// Messages returns the thread's messages in order.
func (s *ChatService) Messages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	conversation, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return conversation.Messages, nil
}

// AnalyzeContent dispatches a content review to the selected provider.
func (s *ChatService) AnalyzeContent(ctx context.Context, content, providerName string) (*provider.ContentAnalysis, error) {
	p, apiErr := s.providers.Select(providerName)
	if apiErr != nil {
		return nil, apiErr
	}
	return p.AnalyzeContent(ctx, content)
}

// RecommendThemes dispatches a theme recommendation request.
func (s *ChatService) RecommendThemes(ctx context.Context, description, providerName string) ([]provider.Recommendation, error) {
	p, apiErr := s.providers.Select(providerName)
	if apiErr != nil {
		return nil, apiErr
	}
	return p.RecommendThemes(ctx, description)
}

// RecommendPlugins dispatches a plugin recommendation request.
func (s *ChatService) RecommendPlugins(ctx context.Context, needs, providerName string) ([]provider.Recommendation, error) {
	p, apiErr := s.providers.Select(providerName)
	if apiErr != nil {
		return nil, apiErr
	}
	return p.RecommendPlugins(ctx, needs)
}

// Providers lists the configured backends.
func (s *ChatService) Providers() []provider.Info {
	return s.providers.Infos()
}

// loadSiteContext resolves the bound site, if any, into the model-facing
// summary. Credentials stay out of the context.
func (s *ChatService) loadSiteContext(ctx context.Context, conversation *models.Conversation) (*models.Site, *provider.SiteContext, error) {
	if conversation.SiteID == nil {
		return nil, nil, nil
	}

	var site models.Site
	if err := s.db.WithContext(ctx).First(&site, "id = ?", *conversation.SiteID).Error; err != nil {
		return nil, nil, err
	}

	return &site, &provider.SiteContext{
		Name:        site.Name,
		URL:         site.URL,
		WPVersion:   site.WPVersion,
		ActiveTheme: site.ActiveTheme,
		PluginCount: site.PluginCount,
		IsOnline:    site.IsActive,
	}, nil
}

// touchConversation bumps the thread's activity time and fills an untitled
// thread's title from the first user turn.
func (s *ChatService) touchConversation(ctx context.Context, conversation *models.Conversation, firstContent string) {
	updates := map[string]any{"updated_at": gorm.Expr("CURRENT_TIMESTAMP")}
	if conversation.Title == "New conversation" && len(conversation.Messages) == 0 {
		updates["title"] = utils.TruncateString(firstContent, 80)
	}
	if err := s.db.WithContext(ctx).Model(conversation).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("conversation", conversation.ID).Warn("Failed to touch conversation")
	}
}

// buildMessageMetadata assembles the assistant message metadata document.
func buildMessageMetadata(providerName string, actions []provider.AIAction) datatypes.JSON {
	meta := []byte(`{}`)
	meta, _ = sjson.SetBytes(meta, "provider", providerName)
	meta, _ = sjson.SetBytes(meta, "action_count", len(actions))
	if len(actions) > 0 {
		if encoded, err := json.Marshal(actions); err == nil {
			meta, _ = sjson.SetRawBytes(meta, "actions", encoded)
		}
	}
	return datatypes.JSON(meta)
}
