// Package models defines the persisted entities and their lifecycle hooks.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Action statuses. The only legal transitions are
// pending -> in_progress -> {completed, failed}; terminal states are final.
const (
	ActionStatusPending    = "pending"
	ActionStatusInProgress = "in_progress"
	ActionStatusCompleted  = "completed"
	ActionStatusFailed     = "failed"
)

// Action types form a closed set; the gateway rejects anything else.
const (
	ActionThemeCustomize = "theme_customize"
	ActionPluginInstall  = "plugin_install"
	ActionPluginActivate = "plugin_activate"
	ActionContentUpdate  = "content_update"
	ActionSettingsUpdate = "settings_update"
)

// Site auth methods
const (
	AuthMethodAppPassword = "app-password"
	AuthMethodToken       = "token"
)

// User owns sites, conversations, keys and hosting accounts. Authentication
// itself is handled by the access-key middleware; this row exists for
// ownership and cascade semantics.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirstName string    `gorm:"type:varchar(255)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(255)" json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Site is a connected remote WordPress installation. EncryptedPassword holds
// only codec ciphertext and is never serialized into responses.
type Site struct {
	ID                string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID            string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	URL               string         `gorm:"type:varchar(512);not null" json:"url"`
	Username          string         `gorm:"type:varchar(255);not null" json:"username"`
	EncryptedPassword string         `gorm:"type:text;not null" json:"-"`
	AuthMethod        string         `gorm:"type:varchar(32);not null;default:app-password" json:"auth_method"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	LastConnected     *time.Time     `json:"last_connected"`
	WPVersion         string         `gorm:"type:varchar(32)" json:"wp_version"`
	ActiveTheme       string         `gorm:"type:varchar(255)" json:"active_theme"`
	PluginCount       int            `gorm:"default:0" json:"plugin_count"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`

	Conversations []Conversation `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"-"`
	Actions       []Action       `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"-"`
	Activities    []Activity     `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Conversation is a named chat thread tying a user to an optional site.
type Conversation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	SiteID    *string   `gorm:"type:varchar(36);index" json:"site_id"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Message is an ordered entry in a conversation. Immutable once created.
type Message struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string         `gorm:"type:varchar(36);not null;index" json:"conversation_id"`
	Role           string         `gorm:"type:varchar(16);not null" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Metadata       datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`

	Actions []Action `gorm:"foreignKey:MessageID;constraint:OnDelete:SET NULL" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Action is one declared unit of work against a site, referencing the
// assistant message that declared it. MessageID is nulled when the message
// goes away so completed work history survives conversation deletion.
type Action struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	SiteID      string         `gorm:"type:varchar(36);not null;index" json:"site_id"`
	MessageID   *string        `gorm:"type:varchar(36)" json:"message_id"`
	ActionType  string         `gorm:"type:varchar(64);not null" json:"action_type"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Status      string         `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	Result      datatypes.JSON `gorm:"type:json" json:"result,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at"`
}

func (a *Action) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Activity is an append-only audit log entry per site.
type Activity struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	SiteID       string         `gorm:"type:varchar(36);not null;index" json:"site_id"`
	ActivityType string         `gorm:"type:varchar(64);not null" json:"activity_type"`
	Description  string         `gorm:"type:text;not null" json:"description"`
	Metadata     datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// APIKey stores a user's encrypted third-party API key. The plaintext key is
// accepted on create/update and never echoed back.
type APIKey struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Provider     string     `gorm:"type:varchar(64);not null" json:"provider"`
	KeyName      string     `gorm:"type:varchar(255);not null" json:"key_name"`
	EncryptedKey string     `gorm:"type:text;not null" json:"-"`
	KeyHash      string     `gorm:"type:varchar(64);index" json:"-"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastUsed     *time.Time `json:"last_used"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

// HostingAccount stores a user's hosting provider account with encrypted
// JSON credentials.
type HostingAccount struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID               string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Provider             string     `gorm:"type:varchar(64);not null" json:"provider"`
	AccountName          string     `gorm:"type:varchar(255);not null" json:"account_name"`
	ServerURL            string     `gorm:"type:varchar(512);not null" json:"server_url"`
	EncryptedCredentials string     `gorm:"type:text;not null" json:"-"`
	IsActive             bool       `gorm:"default:true" json:"is_active"`
	LastConnected        *time.Time `json:"last_connected"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (h *HostingAccount) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// IsValidActionType reports whether t belongs to the supported action set.
func IsValidActionType(t string) bool {
	switch t {
	case ActionThemeCustomize, ActionPluginInstall, ActionPluginActivate,
		ActionContentUpdate, ActionSettingsUpdate:
		return true
	}
	return false
}

// IsTerminalActionStatus reports whether s is a terminal action status.
func IsTerminalActionStatus(s string) bool {
	return s == ActionStatusCompleted || s == ActionStatusFailed
}
