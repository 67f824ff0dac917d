package generator

import (
	"embed"
)

//go:embed templates/gunicorn.conf.py templates/settings_init.py
var templates embed.FS

const (
	gunicornTemplatePath     = "templates/gunicorn.conf.py"
	settingsInitTemplatePath = "templates/settings_init.py"
)

// GunicornTemplate is the worker config every generated file starts from.
func GunicornTemplate() string {
	return mustTemplate(gunicornTemplatePath)
}

// SettingsInitTemplate is copied verbatim to settings/__init__.py.
func SettingsInitTemplate() string {
	return mustTemplate(settingsInitTemplatePath)
}

func mustTemplate(name string) string {
	data, err := templates.ReadFile(name)
	if err != nil {
		panic("generator: missing embedded template " + name)
	}
	return string(data)
}
