package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the deployer's custom tags
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return yamlName(fld.Tag.Get("yaml"), fld.Name)
		})
		_ = validate.RegisterValidation("port", func(fl validator.FieldLevel) bool {
			return ValidatePort(int(fl.Field().Int())) == nil
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// ValidateStruct runs the shared validator and flattens failures into one
// error naming every offending field.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" || fe.Tag() == "notblank" {
			fields = append(fields, fmt.Sprintf("%s is required", fe.Field()))
			continue
		}
		fields = append(fields, fmt.Sprintf("%s fails %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return errors.New(strings.Join(fields, "; "))
}

func yamlName(tag, fallback string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" || name == "-" {
		return fallback
	}
	return name
}

func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be in range 1-65535: %d", port)
	}
	return nil
}

// ParseCount parses the integer a remote `wc -l`/`cat pidfile` printed.
func ParseCount(stdout string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(stdout))
	if err != nil {
		return 0, fmt.Errorf("unexpected command output %q: %w", strings.TrimSpace(stdout), err)
	}
	return n, nil
}

var (
	shellSafe      = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)
	// shellExpansion matches a leading ~ or $VAR / ${VAR} path component.
	shellExpansion = regexp.MustCompile(`^(~|\$[A-Za-z_][A-Za-z0-9_]*|\$\{[A-Za-z_][A-Za-z0-9_]*\})(/.*)?$`)
)

// ShellQuote returns value unchanged when it only holds shell-safe
// characters, otherwise single-quotes it. A leading ~ or $VAR component is
// left outside the quotes so the remote shell still expands it.
func ShellQuote(value string) string {
	if value == "" {
		return "''"
	}
	if m := shellExpansion.FindStringSubmatch(value); m != nil {
		// The slash after ~ must stay unquoted for tilde expansion.
		prefix, rest := m[1], strings.TrimPrefix(m[2], "/")
		if m[2] == "" {
			return prefix
		}
		if rest == "" {
			return prefix + "/"
		}
		return prefix + "/" + quoteWord(rest)
	}
	return quoteWord(value)
}

func quoteWord(value string) string {
	if shellSafe.MatchString(value) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
