// Package l10n wraps gettext catalogs for the plugin's user-facing strings.
package l10n

import (
	"fmt"

	"github.com/snapcore/go-gettext"
	"golang.org/x/text/language"
)

// DomainName is the gettext text domain of the plugin.
const DomainName = "director-google"

var domain gettext.TextDomain
var userLocale *Localizer

func init() {
	domain = gettext.TextDomain{Name: DomainName}
	userLocale = &Localizer{tag: language.Und, catalog: domain.UserLocale()}
}

// Localizer translates strings for a single locale.
type Localizer struct {
	tag     language.Tag
	catalog gettext.Catalog
}

// For returns a Localizer for tag. language.Und selects the user locale of
// the process environment.
func For(tag language.Tag) *Localizer {
	if tag == language.Und {
		return userLocale
	}
	return &Localizer{tag: tag, catalog: domain.Locale(catalogNames(tag)...)}
}

// catalogNames lists gettext locale names for tag, most specific first
// ("pt_BR", "pt").
func catalogNames(tag language.Tag) []string {
	base, _ := tag.Base()
	region, confidence := tag.Region()
	if confidence == language.Exact {
		return []string{base.String() + "_" + region.String(), base.String()}
	}
	return []string{base.String()}
}

// Tag returns the locale of the Localizer.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// T localizes simple strings.
func (l *Localizer) T(str string, vars ...interface{}) string {
	translation := l.catalog.Gettext(str)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}

// TN localizes strings with plurals.
func (l *Localizer) TN(singular, plural string, n uint32, vars ...interface{}) string {
	translation := l.catalog.NGettext(singular, plural, n)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}

// TC localizes strings with contexts.
func (l *Localizer) TC(ctx, str string, vars ...interface{}) string {
	translation := l.catalog.PGettext(ctx, str)
	if len(vars) > 0 {
		translation = fmt.Sprintf(translation, vars...)
	}
	return translation
}

// T localizes simple strings in the user locale.
func T(str string, vars ...interface{}) string {
	return userLocale.T(str, vars...)
}

// TN localizes strings with plurals in the user locale.
func TN(singular, plural string, n uint32, vars ...interface{}) string {
	return userLocale.TN(singular, plural, n, vars...)
}
