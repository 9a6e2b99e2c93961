package container

import (
	"testing"

	"wp-pilot/internal/encryption"
	"wp-pilot/internal/monitor"
	"wp-pilot/internal/services"
	"wp-pilot/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestEnv sets up test environment variables
func setupTestEnv(t testing.TB) {
	t.Helper()
	t.Setenv("AUTH_KEY", "test-auth-key-minimum-16-chars")
	t.Setenv("DATABASE_DSN", ":memory:")
	t.Setenv("PORT", "3001")
}

// TestBuildContainer tests container creation
func TestBuildContainer(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)
	require.NotNil(t, container)
}

// TestBuildContainer_ConfigManagerResolution tests config manager resolution
func TestBuildContainer_ConfigManagerResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	var configManager types.ConfigManager
	err = container.Invoke(func(cm types.ConfigManager) {
		configManager = cm
	})
	require.NoError(t, err)
	assert.NotNil(t, configManager)
	assert.NotEmpty(t, configManager.GetAuthConfig().Key)
}

// TestBuildContainer_ServiceGraph verifies that the full service graph can be
// resolved against an in-memory database.
func TestBuildContainer_ServiceGraph(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(
		siteService *services.SiteService,
		chatService *services.ChatService,
		apiKeyService *services.APIKeyService,
		hostingService *services.HostingService,
		healthMonitor *monitor.HealthMonitor,
	) {
		assert.NotNil(t, siteService)
		assert.NotNil(t, chatService)
		assert.NotNil(t, apiKeyService)
		assert.NotNil(t, hostingService)
		assert.NotNil(t, healthMonitor)
	})
	require.NoError(t, err)
}

// TestBuildContainer_RouterResolution tests that the HTTP engine can be built
func TestBuildContainer_RouterResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	var engine *gin.Engine
	err = container.Invoke(func(e *gin.Engine) {
		engine = e
	})
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

// TestBuildContainer_ServiceSingleton tests that services are singletons
func TestBuildContainer_ServiceSingleton(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	var cm1 types.ConfigManager
	var cm2 types.ConfigManager

	err = container.Invoke(func(cm types.ConfigManager) {
		cm1 = cm
	})
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		cm2 = cm
	})
	require.NoError(t, err)

	// Should be same instance
	assert.Same(t, cm1, cm2)
}

// TestBuildContainer_WithEncryptionKey tests container with encryption key
func TestBuildContainer_WithEncryptionKey(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ENCRYPTION_KEY", "test-encryption-key-32-bytes!!")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager, enc encryption.Service) {
		assert.Equal(t, "test-encryption-key-32-bytes!!", cm.GetEncryptionKey())
		assert.True(t, enc.IsEnabled())
	})
	require.NoError(t, err)
}

// TestBuildContainer_WithoutEncryptionKey tests that a missing key falls back
// to the plaintext codec instead of failing the build.
func TestBuildContainer_WithoutEncryptionKey(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(enc encryption.Service) {
		assert.False(t, enc.IsEnabled())
	})
	require.NoError(t, err)
}

// TestBuildContainer_WithCustomPort tests container with custom port
func TestBuildContainer_WithCustomPort(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("PORT", "8080")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		assert.Equal(t, 8080, cm.GetEffectiveServerConfig().Port)
	})
	require.NoError(t, err)
}

// TestBuildContainer_CORSConfig tests CORS configuration
func TestBuildContainer_CORSConfig(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ENABLE_CORS", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		corsConfig := cm.GetCORSConfig()
		assert.True(t, corsConfig.Enabled)
		assert.Len(t, corsConfig.AllowedOrigins, 2)
	})
	require.NoError(t, err)
}

// TestBuildContainer_ProviderConfig tests AI provider configuration
func TestBuildContainer_ProviderConfig(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DEFAULT_AI_PROVIDER", "openai")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		providerConfig := cm.GetProviderConfig()
		assert.Equal(t, "sk-test", providerConfig.OpenAIAPIKey)
		assert.Equal(t, "openai", providerConfig.DefaultProvider)
	})
	require.NoError(t, err)
}

// TestBuildContainer_ValidationSuccess tests successful validation
func TestBuildContainer_ValidationSuccess(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		assert.NoError(t, cm.Validate())
	})
	require.NoError(t, err)
}

// BenchmarkBuildContainer benchmarks container creation
func BenchmarkBuildContainer(b *testing.B) {
	setupTestEnv(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		container, err := BuildContainer()
		if err != nil {
			b.Fatal(err)
		}
		_ = container
	}
}

// BenchmarkContainerInvoke benchmarks dependency resolution
func BenchmarkContainerInvoke(b *testing.B) {
	setupTestEnv(b)

	container, err := BuildContainer()
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err = container.Invoke(func(cm types.ConfigManager) {
			_ = cm
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
