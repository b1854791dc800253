package main

import (
	"embed"
	"net/http"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// messages localises API error messages. French is the default language.
type messages struct {
	bundle *i18n.Bundle
}

func newMessages() *messages {
	bundle := i18n.NewBundle(language.French)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, name := range []string{"locales/active.fr.toml", "locales/active.en.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, name); err != nil {
			panic(err)
		}
	}
	return &messages{bundle: bundle}
}

// localize returns the message id in the request's preferred language. The id
// itself is returned if no translation exists.
func (m *messages) localize(r *http.Request, id string, data map[string]any) string {
	loc := i18n.NewLocalizer(m.bundle, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	msg, err := loc.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}
