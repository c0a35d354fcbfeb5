// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package i18n provides localized reply text for the bot and the CLI.
// Translation files are embedded YAML loaded through go-i18n. Discord sends
// the invoking user's locale with every interaction, so lookups take the
// language explicitly and fall back to the configured default.
package i18n

import (
	"embed"
	"io/fs"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// localeFS embeds the YAML translation files from the 'locales' directory
// into the application binary.
//
//go:embed locales/*.yaml
var localeFS embed.FS

var (
	mu          sync.RWMutex
	bundle      *i18n.Bundle
	defaultLang = "en"
	localizers  = map[string]*i18n.Localizer{}
)

// Init loads every embedded locale file and sets the default language.
func Init(lang string) {
	b := i18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, _ := fs.ReadDir(localeFS, "locales")
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			continue
		}
		_, _ = b.ParseMessageFileBytes(data, f.Name())
	}

	mu.Lock()
	bundle = b
	localizers = map[string]*i18n.Localizer{}
	if lang != "" {
		defaultLang = lang
	}
	mu.Unlock()
}

// SetLang changes the default language.
func SetLang(lang string) {
	Init(lang)
}

// Languages returns the tags of every loaded translation.
func Languages() []string {
	ensure()
	mu.RLock()
	defer mu.RUnlock()
	var out []string
	for _, tag := range bundle.LanguageTags() {
		out = append(out, tag.String())
	}
	return out
}

func ensure() {
	mu.RLock()
	ready := bundle != nil
	mu.RUnlock()
	if !ready {
		Init("")
	}
}

func localizerFor(lang string) *i18n.Localizer {
	ensure()
	lang = strings.TrimSpace(lang)
	mu.RLock()
	l, ok := localizers[lang]
	def := defaultLang
	b := bundle
	mu.RUnlock()
	if ok {
		return l
	}
	l = i18n.NewLocalizer(b, lang, def, "en")
	mu.Lock()
	localizers[lang] = l
	mu.Unlock()
	return l
}

// T translates messageID in the default language.
// If a translation is missing the message ID itself is returned.
func T(messageID string, data ...map[string]any) string {
	return TL("", messageID, data...)
}

// TL translates messageID for lang, falling back to the default language
// and then English.
func TL(lang, messageID string, data ...map[string]any) string {
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(data) > 0 && data[0] != nil {
		cfg.TemplateData = data[0]
	}
	msg, err := localizerFor(lang).Localize(cfg)
	if err != nil || msg == "" {
		return messageID
	}
	return msg
}
