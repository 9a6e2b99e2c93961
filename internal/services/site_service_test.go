package services

import (
	"context"
	"testing"

	app_errors "wp-pilot/internal/errors"
	"wp-pilot/internal/models"
	"wp-pilot/internal/wordpress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteFixture(t *testing.T) (*SiteService, *fakeGateway, string) {
	t.Helper()
	db := newTestDB(t)
	enc := newTestEncryption(t)
	user := seedUser(t, db)
	gateway := newFakeGateway()
	return NewSiteService(db, enc, gateway), gateway, user.ID
}

func TestSiteCreateVerifiesConnection(t *testing.T) {
	svc, gateway, userID := newSiteFixture(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, userID, SiteCreateRequest{
		Name:     "Blog",
		URL:      "https://blog.example.com",
		Username: "admin",
		Secret:   "app pass word",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, site.ID)
	assert.Equal(t, gateway.connectionTest.WPVersion, site.WPVersion)
	assert.Equal(t, gateway.connectionTest.ActiveTheme, site.ActiveTheme)
	assert.Equal(t, gateway.connectionTest.PluginCount, site.PluginCount)
	assert.NotNil(t, site.LastConnected)

	// Secret is stored as ciphertext.
	assert.NotEmpty(t, site.EncryptedPassword)
	assert.NotEqual(t, "app pass word", site.EncryptedPassword)

	activities, err := svc.Activities(ctx, userID, site.ID, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "site_connected", activities[0].ActivityType)
}

func TestSiteCreateRejectsFailedConnection(t *testing.T) {
	svc, gateway, userID := newSiteFixture(t)
	gateway.connectionTest = wordpress.ConnectionTest{
		Success:   false,
		Error:     "HTTP 401: Sorry, you are not allowed to do that.",
		ErrorKind: wordpress.ErrorKindHTTP,
	}

	_, err := svc.Create(context.Background(), userID, SiteCreateRequest{
		Name:     "Blog",
		URL:      "https://blog.example.com",
		Username: "admin",
		Secret:   "wrong",
	})

	var apiErr *app_errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "CONNECTION_TEST_FAILED", apiErr.Code)
	assert.Contains(t, apiErr.Message, "401")

	// Nothing was persisted.
	sites, listErr := svc.List(context.Background(), userID)
	require.NoError(t, listErr)
	assert.Empty(t, sites)
}

func TestSiteCreateRejectsBadAuthMethod(t *testing.T) {
	svc, _, userID := newSiteFixture(t)

	_, err := svc.Create(context.Background(), userID, SiteCreateRequest{
		Name:       "Blog",
		URL:        "https://blog.example.com",
		Username:   "admin",
		Secret:     "s",
		AuthMethod: "oauth",
	})

	var apiErr *app_errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
}

func TestSiteGetScopedToOwner(t *testing.T) {
	svc, _, userID := newSiteFixture(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, userID, SiteCreateRequest{
		Name: "Blog", URL: "https://blog.example.com", Username: "admin", Secret: "s",
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "intruder", site.ID)
	require.Error(t, err)

	found, err := svc.Get(ctx, userID, site.ID)
	require.NoError(t, err)
	assert.Equal(t, site.ID, found.ID)
}

func TestSiteUpdateRotatesSecret(t *testing.T) {
	svc, _, userID := newSiteFixture(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, userID, SiteCreateRequest{
		Name: "Blog", URL: "https://blog.example.com", Username: "admin", Secret: "old secret",
	})
	require.NoError(t, err)
	oldCiphertext := site.EncryptedPassword

	updated, err := svc.Update(ctx, userID, site.ID, SiteUpdateRequest{Secret: "new secret"})
	require.NoError(t, err)
	assert.NotEqual(t, oldCiphertext, updated.EncryptedPassword)

	secret, err := svc.DecryptSecret(updated)
	require.NoError(t, err)
	assert.Equal(t, "new secret", secret)
}

func TestSiteUpdateRejectsFailedRotation(t *testing.T) {
	svc, gateway, userID := newSiteFixture(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, userID, SiteCreateRequest{
		Name: "Blog", URL: "https://blog.example.com", Username: "admin", Secret: "old secret",
	})
	require.NoError(t, err)

	gateway.connectionTest = wordpress.ConnectionTest{Success: false, Error: "HTTP 401", ErrorKind: wordpress.ErrorKindHTTP}
	_, err = svc.Update(ctx, userID, site.ID, SiteUpdateRequest{Secret: "bad secret"})

	var apiErr *app_errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "CONNECTION_TEST_FAILED", apiErr.Code)

	// Stored credential is untouched.
	current, getErr := svc.Get(ctx, userID, site.ID)
	require.NoError(t, getErr)
	secret, decErr := svc.DecryptSecret(current)
	require.NoError(t, decErr)
	assert.Equal(t, "old secret", secret)
}

func TestSiteDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	enc := newTestEncryption(t)
	user := seedUser(t, db)
	gateway := newFakeGateway()
	svc := NewSiteService(db, enc, gateway)
	ctx := context.Background()

	site, err := svc.Create(ctx, user.ID, SiteCreateRequest{
		Name: "Blog", URL: "https://blog.example.com", Username: "admin", Secret: "s",
	})
	require.NoError(t, err)

	conversation := &models.Conversation{UserID: user.ID, SiteID: &site.ID, Title: "t"}
	require.NoError(t, db.Create(conversation).Error)
	action := &models.Action{SiteID: site.ID, ActionType: models.ActionSettingsUpdate, Description: "d"}
	require.NoError(t, db.Create(action).Error)

	require.NoError(t, svc.Delete(ctx, user.ID, site.ID))

	var counts [3]int64
	require.NoError(t, db.Model(&models.Conversation{}).Where("site_id = ?", site.ID).Count(&counts[0]).Error)
	require.NoError(t, db.Model(&models.Action{}).Where("site_id = ?", site.ID).Count(&counts[1]).Error)
	require.NoError(t, db.Model(&models.Activity{}).Where("site_id = ?", site.ID).Count(&counts[2]).Error)
	assert.Zero(t, counts[0], "conversations cascade")
	assert.Zero(t, counts[1], "actions cascade")
	assert.Zero(t, counts[2], "activities cascade")
}

func TestSiteDeleteNotFound(t *testing.T) {
	svc, _, userID := newSiteFixture(t)

	err := svc.Delete(context.Background(), userID, "missing-id")
	var apiErr *app_errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestSiteCheckStatusRefreshesMetadata(t *testing.T) {
	svc, gateway, userID := newSiteFixture(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, userID, SiteCreateRequest{
		Name: "Blog", URL: "https://blog.example.com", Username: "admin", Secret: "s",
	})
	require.NoError(t, err)

	gateway.siteStatus = wordpress.SiteStatus{IsOnline: true, WPVersion: "6.6", ActiveTheme: "Neve", PluginCount: 9, ResponseTimeMs: 30}
	status, err := svc.CheckStatus(ctx, userID, site.ID)
	require.NoError(t, err)
	assert.True(t, status.IsOnline)

	refreshed, err := svc.Get(ctx, userID, site.ID)
	require.NoError(t, err)
	assert.Equal(t, "6.6", refreshed.WPVersion)
	assert.Equal(t, "Neve", refreshed.ActiveTheme)
	assert.Equal(t, 9, refreshed.PluginCount)
}

func TestSiteCheckStatusOfflineKeepsMetadata(t *testing.T) {
	svc, gateway, userID := newSiteFixture(t)
	ctx := context.Background()

	site, err := svc.Create(ctx, userID, SiteCreateRequest{
		Name: "Blog", URL: "https://blog.example.com", Username: "admin", Secret: "s",
	})
	require.NoError(t, err)

	gateway.siteStatus = wordpress.SiteStatus{IsOnline: false}
	status, err := svc.CheckStatus(ctx, userID, site.ID)
	require.NoError(t, err)
	assert.False(t, status.IsOnline)

	kept, err := svc.Get(ctx, userID, site.ID)
	require.NoError(t, err)
	assert.Equal(t, gateway.connectionTest.WPVersion, kept.WPVersion)
}
