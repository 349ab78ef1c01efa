package cli

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/netresearch/suiteport/config"
	"github.com/netresearch/suiteport/core"
)

// ErrValidationFailed is returned when struct validation fails.
var ErrValidationFailed = errors.New("validation failed")

var configValidator *validator.Validate

func init() {
	configValidator = validator.New()

	_ = configValidator.RegisterValidation("gitref", stringRule(config.DefaultSanitizer.ValidateGitRef))
	_ = configValidator.RegisterValidation("repourl", stringRule(config.DefaultSanitizer.ValidateRepositoryURL))
	_ = configValidator.RegisterValidation("checkoutdir", stringRule(config.DefaultSanitizer.ValidateCheckoutDir))
	_ = configValidator.RegisterValidation("module", stringRule(config.DefaultSanitizer.ValidateModule))
	_ = configValidator.RegisterValidation("envvar", stringRule(config.DefaultSanitizer.ValidateEnvironmentVar))
	_ = configValidator.RegisterValidation("command", stringRule(config.DefaultSanitizer.ValidateCommand))
	_ = configValidator.RegisterValidation("testfile", stringRule(func(s string) error {
		_, err := core.TestNameFragment(s)
		return err
	}))
}

// stringRule adapts a sanitizer check. Empty values pass; `required`
// covers them.
func stringRule(check func(string) error) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return check(value) == nil
	}
}

// ValidateConfig validates a configuration struct using struct tags
func ValidateConfig(cfg any) error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatValidationError(e))
	}

	return fmt.Errorf("%w:\n  %s", ErrValidationFailed, strings.Join(messages, "\n  "))
}

func formatValidationError(e validator.FieldError) string {
	field := e.Field()
	param := e.Param()
	value := e.Value()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: required field is empty", field)
	case "gte":
		return fmt.Sprintf("%s: must be >= %s (got: %v)", field, param, value)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s] (got: %v)", field, param, value)
	case "gitref":
		return fmt.Sprintf("%s: must be a valid branch or tag name (got: %v)", field, value)
	case "repourl":
		return fmt.Sprintf("%s: must be a repository URL or scp-like address (got: %v)", field, value)
	case "checkoutdir":
		return fmt.Sprintf("%s: must be an absolute directory other than / (got: %v)", field, value)
	case "module":
		return fmt.Sprintf("%s: must be a dotted module name (got: %v)", field, value)
	case "envvar":
		return fmt.Sprintf("%s: must be a valid environment variable name (got: %v)", field, value)
	case "command":
		return fmt.Sprintf("%s: must be a plain command line without shell syntax (got: %v)", field, value)
	case "testfile":
		return fmt.Sprintf("%s: must be named test_<name>.py (got: %v)", field, value)
	default:
		return fmt.Sprintf("%s: validation '%s' failed (got: %v)", field, e.Tag(), value)
	}
}

// UnknownKeyWarning represents a warning about an unknown configuration key
type UnknownKeyWarning struct {
	Section    string
	Key        string
	Suggestion string // "did you mean?" suggestion, if available
}

func (w UnknownKeyWarning) String() string {
	if w.Suggestion != "" {
		return fmt.Sprintf("Unknown key %q in section %q is ignored (did you mean %q?)", w.Key, w.Section, w.Suggestion)
	}
	return fmt.Sprintf("Unknown key %q in section %q is ignored", w.Key, w.Section)
}

// GenerateUnknownKeyWarnings generates warnings for unknown keys with suggestions
func GenerateUnknownKeyWarnings(section string, unusedKeys []string, knownKeys []string) []UnknownKeyWarning {
	warnings := make([]UnknownKeyWarning, 0, len(unusedKeys))
	for _, key := range unusedKeys {
		warnings = append(warnings, UnknownKeyWarning{
			Section:    section,
			Key:        key,
			Suggestion: findClosestMatch(key, knownKeys),
		})
	}
	return warnings
}

// knownKeys lists the mapstructure keys of a struct pointer.
func knownKeys(v any) []string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	keys := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("mapstructure")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}

// findClosestMatch finds the closest matching key using edit distance
func findClosestMatch(key string, candidates []string) string {
	key = strings.ToLower(key)
	bestMatch := ""
	bestDistance := len(key) + 1

	threshold := 3
	if len(key) > 5 {
		threshold = max(threshold, len(key)*2/5)
	}

	for _, candidate := range candidates {
		candidate = strings.ToLower(candidate)
		distance := levenshteinDistance(key, candidate)
		if distance < bestDistance && distance <= threshold {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	return bestMatch
}

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
