package services

import (
	"context"
	"encoding/json"
	"time"

	"wp-pilot/internal/models"
	"wp-pilot/internal/wordpress"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActionExecutor runs declared actions against a site, one at a time in
// declaration order. Each action's outcome is independent; a failure never
// stops the remaining siblings.
type ActionExecutor struct {
	db      *gorm.DB
	gateway SiteGateway
}

func NewActionExecutor(db *gorm.DB, gateway SiteGateway) *ActionExecutor {
	return &ActionExecutor{db: db, gateway: gateway}
}

// DeclaredAction is one action as declared by the AI reply.
type DeclaredAction struct {
	Type        string
	Description string
	Params      json.RawMessage
}

// ExecuteAll persists and executes the declared actions serially. Every
// declaration gets a ledger row regardless of outcome; completed actions
// additionally append to the site's activity log, failed ones do not.
func (e *ActionExecutor) ExecuteAll(ctx context.Context, site *models.Site, secret string, messageID *string, declared []DeclaredAction) []models.Action {
	results := make([]models.Action, 0, len(declared))
	for _, d := range declared {
		action := e.executeOne(ctx, site, secret, messageID, d)
		results = append(results, action)
	}
	return results
}

func (e *ActionExecutor) executeOne(ctx context.Context, site *models.Site, secret string, messageID *string, d DeclaredAction) models.Action {
	action := models.Action{
		SiteID:      site.ID,
		MessageID:   messageID,
		ActionType:  d.Type,
		Description: d.Description,
		Status:      models.ActionStatusPending,
	}
	if err := e.db.WithContext(ctx).Create(&action).Error; err != nil {
		logrus.WithError(err).WithField("site", site.ID).Error("Failed to persist action")
		action.Status = models.ActionStatusFailed
		return action
	}

	e.setStatus(ctx, &action, models.ActionStatusInProgress, nil)

	result, err := e.gateway.ExecuteAction(ctx, site, secret, wordpress.Action{
		Type:        d.Type,
		Description: d.Description,
		Params:      d.Params,
	})

	now := time.Now()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"site":   site.ID,
			"action": action.ID,
			"type":   d.Type,
		}).WithError(err).Warn("Action execution failed")

		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		action.Result = datatypes.JSON(payload)
		action.CompletedAt = &now
		e.setStatus(ctx, &action, models.ActionStatusFailed, map[string]any{
			"result":       action.Result,
			"completed_at": &now,
		})
		return action
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		payload = []byte(`{}`)
	}
	action.Result = datatypes.JSON(payload)
	action.CompletedAt = &now
	e.setStatus(ctx, &action, models.ActionStatusCompleted, map[string]any{
		"result":       action.Result,
		"completed_at": &now,
	})

	e.recordActivity(ctx, site.ID, d)
	return action
}

// setStatus advances the action through its lifecycle. Additional column
// updates ride along with the status change.
func (e *ActionExecutor) setStatus(ctx context.Context, action *models.Action, status string, extra map[string]any) {
	updates := map[string]any{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if err := e.db.WithContext(ctx).Model(&models.Action{}).Where("id = ?", action.ID).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("action", action.ID).Error("Failed to update action status")
	}
	action.Status = status
}

func (e *ActionExecutor) recordActivity(ctx context.Context, siteID string, d DeclaredAction) {
	description := d.Description
	if description == "" {
		description = "Executed action " + d.Type
	}
	activity := &models.Activity{
		SiteID:       siteID,
		ActivityType: d.Type,
		Description:  description,
	}
	if err := e.db.WithContext(ctx).Create(activity).Error; err != nil {
		logrus.WithError(err).WithField("site", siteID).Warn("Failed to record action activity")
	}
}
