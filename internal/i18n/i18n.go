// Package i18n provides response message localization.
package i18n

import (
	"encoding/json"
	"fmt"
	"strings"

	"wp-pilot/internal/i18n/locales"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var bundle *i18n.Bundle

// Init initializes the message bundle.
func Init() error {
	bundle = i18n.NewBundle(language.AmericanEnglish)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, lang := range []string{"en-US"} {
		if err := loadMessages(lang); err != nil {
			return fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	return nil
}

// loadMessages registers the message map for a language.
func loadMessages(lang string) error {
	for id, msg := range getMessages(lang) {
		bundle.AddMessages(language.MustParse(lang), &i18n.Message{
			ID:    id,
			Other: msg,
		})
	}
	return nil
}

func getMessages(lang string) map[string]string {
	switch lang {
	case "en-US":
		return locales.MessagesEnUS
	default:
		return locales.MessagesEnUS
	}
}

// GetLocalizer returns a localizer for the given Accept-Language header.
func GetLocalizer(acceptLang string) *i18n.Localizer {
	langs := parseAcceptLanguage(acceptLang)
	if len(langs) == 0 {
		langs = []string{"en-US"}
	}
	return i18n.NewLocalizer(bundle, langs...)
}

// parseAcceptLanguage takes the first language of an Accept-Language header.
func parseAcceptLanguage(acceptLang string) []string {
	if acceptLang == "" {
		return nil
	}
	parts := strings.Split(acceptLang, ",")
	if len(parts) == 0 {
		return nil
	}
	lang := strings.TrimSpace(parts[0])
	if idx := strings.Index(lang, ";"); idx > 0 {
		lang = lang[:idx]
	}
	return []string{normalizeLanguageCode(lang)}
}

// normalizeLanguageCode maps language tags onto supported locales.
// Only English is shipped today; the indirection keeps locale additions local
// to this file and the locales package.
func normalizeLanguageCode(lang string) string {
	switch strings.ToLower(lang) {
	case "en", "en-us", "en-gb":
		return "en-US"
	default:
		return "en-US"
	}
}

// T translates a message, returning the message ID when no translation exists.
func T(localizer *i18n.Localizer, msgID string, data ...map[string]any) string {
	config := &i18n.LocalizeConfig{
		MessageID: msgID,
	}
	if len(data) > 0 {
		config.TemplateData = data[0]
	}

	msg, err := localizer.Localize(config)
	if err != nil {
		return msgID
	}
	return msg
}
