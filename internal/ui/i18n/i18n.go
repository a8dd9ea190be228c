// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n localizes the strings shown by the terminal UI.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the UI languages. The first entry is the fallback.
var Supported = []language.Tag{language.English, language.Hebrew, language.Arabic}

var (
	matcher = language.NewMatcher(Supported)
	cat     = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("i18n: %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Match returns the supported language closest to name. It accepts BCP 47
// tags ("he", "ar-EG") and POSIX locale names ("he_IL.UTF-8"). Anything
// unrecognized maps to English.
func Match(name string) language.Tag {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "_", "-")

	tag, err := language.Parse(name)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return Supported[idx]
}

// Locale formats messages for one language.
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns the Locale for the language closest to name.
func New(name string) *Locale {
	tag := Match(name)
	return &Locale{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// T formats the message registered under key.
func (l *Locale) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Tag returns the language in use.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// Code returns the base language code, e.g. "he".
func (l *Locale) Code() string {
	base, _ := l.tag.Base()
	return base.String()
}

// IsRTL reports whether the language is written right to left.
func (l *Locale) IsRTL() bool {
	switch l.Code() {
	case "he", "ar":
		return true
	}
	return false
}
