package types

// DefaultLocale is the locale every localized string must provide.
// Lookups for missing locales fall back to it.
const DefaultLocale = "en_US"

// I18n is a localized string keyed by locale tag (e.g., "en_US", "zh_Hans").
//
// Descriptors carry I18n values for every user-facing label so host
// applications can render forms in the viewer's locale. The zero value is an
// absent label.
type I18n map[string]string

// Get returns the string for the given locale, falling back to en_US and
// then to any available locale. Returns "" when the label is empty.
func (i I18n) Get(locale string) string {
	if len(i) == 0 {
		return ""
	}
	if s, ok := i[locale]; ok && s != "" {
		return s
	}
	if s, ok := i[DefaultLocale]; ok && s != "" {
		return s
	}
	for _, s := range i {
		if s != "" {
			return s
		}
	}
	return ""
}

// Default returns the en_US string, falling back like Get.
func (i I18n) Default() string {
	return i.Get(DefaultLocale)
}

// IsZero reports whether no locale carries a non-empty string.
func (i I18n) IsZero() bool {
	for _, s := range i {
		if s != "" {
			return false
		}
	}
	return true
}
