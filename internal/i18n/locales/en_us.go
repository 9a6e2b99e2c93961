package locales

// MessagesEnUS holds English (US) translations.
var MessagesEnUS = map[string]string{
	// Common messages
	"common.success": "Success",
	"common.error":   "Operation failed",

	// Site related
	"site.created":           "Site connected successfully",
	"site.updated":           "Site updated successfully",
	"site.deleted":           "Site deleted successfully",
	"site.not_found":         "Site not found",
	"site.connection_failed": "Failed to connect to the WordPress site",
	"site.status_refreshed":  "Site status refreshed",

	// Conversation related
	"conversation.created":   "Conversation created successfully",
	"conversation.deleted":   "Conversation deleted successfully",
	"conversation.not_found": "Conversation not found",

	// AI provider related
	"provider.none_configured": "No AI provider is configured. Add an OpenAI or Gemini API key to the server environment.",
	"provider.unavailable":     "The requested AI provider is not available. Check its API key configuration.",

	// Credential related
	"credential.created":       "Credential stored successfully",
	"credential.updated":       "Credential updated successfully",
	"credential.deleted":       "Credential deleted successfully",
	"credential.access_failed": "Failed to access stored credential",
}
