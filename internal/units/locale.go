package units

import (
	"fmt"
	"strings"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/en_GB"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
)

// DefaultLocale is used when nothing else is requested.
const DefaultLocale = "en"

type supportedLocale struct {
	tag   language.Tag
	trans locales.Translator
}

func supported() []supportedLocale {
	return []supportedLocale{
		{tag: language.English, trans: en.New()},
		{tag: language.BritishEnglish, trans: en_GB.New()},
		{tag: language.German, trans: de.New()},
		{tag: language.French, trans: fr.New()},
		{tag: language.Spanish, trans: es.New()},
	}
}

// Locales resolves locale names and Accept-Language headers to calendars.
type Locales struct {
	uni      *ut.UniversalTranslator
	fallback locales.Translator
	names    []string
	matcher  language.Matcher
}

// NewLocales builds the registry with def as the fallback locale.
func NewLocales(def string) (*Locales, error) {
	if def == "" {
		def = DefaultLocale
	}

	all := supported()

	var fallback *supportedLocale
	for i := range all {
		if strings.EqualFold(all[i].trans.Locale(), normalizeLocale(def)) {
			fallback = &all[i]
			break
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: unsupported locale %q", ErrInvalidInput, def)
	}

	// The matcher treats its first tag as the default.
	tags := []language.Tag{fallback.tag}
	names := []string{fallback.trans.Locale()}
	trans := make([]locales.Translator, 0, len(all))
	for _, l := range all {
		trans = append(trans, l.trans)
		if l.trans.Locale() == fallback.trans.Locale() {
			continue
		}
		tags = append(tags, l.tag)
		names = append(names, l.trans.Locale())
	}

	return &Locales{
		uni:      ut.New(fallback.trans, trans...),
		fallback: fallback.trans,
		names:    names,
		matcher:  language.NewMatcher(tags),
	}, nil
}

// Default returns the fallback calendar.
func (l *Locales) Default() Calendar {
	return l.fallback
}

// Supported lists the locale names known to the registry, default first.
func (l *Locales) Supported() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Lookup returns the calendar for a locale name such as "de" or "en-GB".
// Unknown names fall back to the default.
func (l *Locales) Lookup(name string) Calendar {
	if name == "" {
		return l.fallback
	}
	if t, ok := l.uni.GetTranslator(normalizeLocale(name)); ok {
		return t
	}
	return l.fallback
}

// Match picks the best supported calendar for an Accept-Language header.
func (l *Locales) Match(acceptLanguage string) Calendar {
	if strings.TrimSpace(acceptLanguage) == "" {
		return l.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(l.names) {
		return l.fallback
	}
	return l.Lookup(l.names[idx])
}

// Formatter returns a Formatter for the named locale.
func (l *Locales) Formatter(name string, opts ...Option) *Formatter {
	return NewFormatter(l.Lookup(name), opts...)
}

// locales uses underscores ("en_GB"); HTTP clients send hyphens.
func normalizeLocale(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "-", "_"))
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return strings.ToLower(name[:i]) + "_" + strings.ToUpper(name[i+1:])
	}
	return strings.ToLower(name)
}
