package i18n

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// SupportedLanguages lists the languages loaded at startup.
var SupportedLanguages []string

// InitI18n loads TOML message files into a bundle.
func InitI18n(filePaths []string, defaultLang string) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	SupportedLanguages = make([]string, 0)

	for _, filePath := range filePaths {
		file, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}

		lang := extractLanguageFromPath(filePath)
		SupportedLanguages = append(SupportedLanguages, lang)

		_, err = bundle.ParseMessageFileBytes(file, filePath)
		if err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// extractLanguageFromPath derives the language tag from a file name of
// the form <lang>.toml.
func extractLanguageFromPath(filePath string) string {
	baseName := filepath.Base(filePath)
	return strings.TrimSuffix(baseName, filepath.Ext(baseName))
}

// T localizes a message key using the request-scoped localizer. Falls
// back to the key itself when no localizer is present (tests, cron).
func T(ctx context.Context, key string, data map[string]interface{}) string {
	localizer, ok := ctx.Value("i18n.Localizer").(*i18n.Localizer)
	if !ok {
		return key
	}
	config := &i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	}
	msg, err := localizer.Localize(config)
	if err != nil {
		return key
	}
	return msg
}
