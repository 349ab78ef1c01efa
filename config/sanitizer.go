package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Sanitizer errors
var (
	ErrControlCharacters = errors.New("input contains invalid control characters")
	ErrShellCharacters   = errors.New("command contains shell metacharacters")
	ErrPathTraversal     = errors.New("path contains directory traversal")
	ErrInvalidGitRef     = errors.New("invalid git reference")
	ErrInvalidURL        = errors.New("invalid repository URL")
	ErrInvalidModule     = errors.New("invalid module name")
	ErrInvalidVariable   = errors.New("invalid environment variable name")
	ErrUnsafeCheckoutDir = errors.New("unsafe checkout directory")
)

// Sanitizer validates user supplied values before they reach git, the
// installer or the test runner. Commands are run without a shell, so shell
// syntax in them is always a configuration mistake.
type Sanitizer struct {
	shellPattern     *regexp.Regexp
	traversalPattern *regexp.Regexp
	modulePattern    *regexp.Regexp
	variablePattern  *regexp.Regexp
}

// NewSanitizer creates a new input sanitizer
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		shellPattern:     regexp.MustCompile(`[;&|<>$` + "`" + `\n\r]|\$\(|\$\{`),
		traversalPattern: regexp.MustCompile(`(^|[\\/])\.\.([\\/]|$)|%2e%2e`),
		modulePattern:    regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`),
		variablePattern:  regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`),
	}
}

// DefaultSanitizer is shared by the configuration loader.
var DefaultSanitizer = NewSanitizer()

// SanitizeString trims input and rejects control characters and overlong values.
func (s *Sanitizer) SanitizeString(input string, maxLength int) (string, error) {
	if len(input) > maxLength {
		return "", fmt.Errorf("input exceeds maximum length of %d characters", maxLength)
	}

	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)

	for _, r := range input {
		if unicode.IsControl(r) && r != '\t' {
			return "", ErrControlCharacters
		}
	}
	return input, nil
}

// ValidateCommand rejects shell syntax in a command line.
func (s *Sanitizer) ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if s.shellPattern.MatchString(command) {
		return fmt.Errorf("%w: %q", ErrShellCharacters, command)
	}
	return nil
}

// ValidateGitRef applies the rules of git check-ref-format to a branch or
// tag name.
func (s *Sanitizer) ValidateGitRef(ref string) error {
	invalid := func(reason string) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidGitRef, ref, reason)
	}

	switch {
	case ref == "":
		return invalid("empty")
	case ref == "@":
		return invalid("is @")
	case strings.HasPrefix(ref, "-"), strings.HasPrefix(ref, "/"):
		return invalid("starts with - or /")
	case strings.HasSuffix(ref, "/"), strings.HasSuffix(ref, "."), strings.HasSuffix(ref, ".lock"):
		return invalid("bad suffix")
	case strings.Contains(ref, ".."), strings.Contains(ref, "@{"), strings.Contains(ref, "//"):
		return invalid("contains .., @{ or //")
	}

	for _, r := range ref {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return invalid(fmt.Sprintf("contains %q", r))
		}
	}
	return nil
}

// ValidateRepositoryURL accepts the transports go-git can clone from.
func (s *Sanitizer) ValidateRepositoryURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	// scp-like syntax: git@host:org/repo.git
	if !strings.Contains(raw, "://") && strings.Contains(raw, "@") && strings.Contains(raw, ":") {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "http", "ssh", "git":
		if u.Host == "" {
			return fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
		}
	case "file":
	default:
		return fmt.Errorf("%w: scheme %q is not supported", ErrInvalidURL, u.Scheme)
	}
	return nil
}

// ValidateCheckoutDir requires an absolute, non-root path without traversal.
// The directory is deleted recursively before every clone.
func (s *Sanitizer) ValidateCheckoutDir(dir string) error {
	if s.traversalPattern.MatchString(strings.ToLower(dir)) {
		return fmt.Errorf("%w: %q", ErrPathTraversal, dir)
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("%w: %q is not absolute", ErrUnsafeCheckoutDir, dir)
	}

	clean := filepath.Clean(dir)
	if clean == "/" || filepath.Dir(clean) == clean {
		return fmt.Errorf("%w: %q is a filesystem root", ErrUnsafeCheckoutDir, dir)
	}
	return nil
}

// ValidateModule checks a dotted module name such as fastseq or pkg.plugin.
func (s *Sanitizer) ValidateModule(name string) error {
	if !s.modulePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidModule, name)
	}
	return nil
}

// ValidateEnvironmentVar checks an environment variable name.
func (s *Sanitizer) ValidateEnvironmentVar(name string) error {
	if !s.variablePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidVariable, name)
	}
	return nil
}
