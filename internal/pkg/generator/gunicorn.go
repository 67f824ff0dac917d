package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"django-deployer/internal/model"
)

// assignment matches `name = value`. The name group is greedy, so for
// `a = b = c` it captures `a = b`, which never matches a known setting.
var assignment = regexp.MustCompile(`^(.*) = (.*)$`)

// ClassifyLine reports the assigned identifier when line is an assignment.
func ClassifyLine(line string) (name, value string, ok bool) {
	m := assignment.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// gunicornSettings maps the template identifiers the deployer owns to their
// value taken from the descriptor.
var gunicornSettings = map[string]func(d *model.Descriptor) string{
	"bind":         func(d *model.Descriptor) string { return pyString(d.GunicornBind) },
	"workers":      func(d *model.Descriptor) string { return strconv.Itoa(d.GunicornWorkers) },
	"worker_class": func(d *model.Descriptor) string { return pyString(d.GunicornWorkerClass) },
	"pidfile":      func(d *model.Descriptor) string { return pyString(d.GunicornPidFile) },
}

// RenderGunicornConfig rewrites the owned assignments of template and copies
// every other line unchanged.
func RenderGunicornConfig(template string, d *model.Descriptor) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(template, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(renderGunicornLine(line, d))
	}
	return b.String()
}

func renderGunicornLine(line string, d *model.Descriptor) string {
	name, _, ok := ClassifyLine(line)
	if !ok {
		return line
	}
	value, owned := gunicornSettings[name]
	if !owned {
		return line
	}
	return fmt.Sprintf("%s = %s\n", name, value(d))
}

// GenerateGunicornConfig writes the rendered template to outPath. It returns
// false without touching anything when outPath already exists; values that
// drifted since are not re-synced.
func GenerateGunicornConfig(outPath string, d *model.Descriptor) (bool, error) {
	if _, err := os.Stat(outPath); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	rendered := RenderGunicornConfig(GunicornTemplate(), d)
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		return false, fmt.Errorf("write gunicorn config %s: %w", outPath, err)
	}
	return true, nil
}

func pyString(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return "'" + strings.ReplaceAll(value, "'", `\'`) + "'"
}
