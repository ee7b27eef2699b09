package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	AliasMinLength = 3
	AliasMaxLength = 50
	MaxURLLength   = 2048
)

var aliasPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateTargetURL checks that targetURL is a syntactically valid
// absolute http(s) URL within the length bound.
func ValidateTargetURL(targetURL string) error {
	if targetURL == "" {
		return fmt.Errorf("error.url_required")
	}

	u, err := url.ParseRequestURI(targetURL)
	if err != nil {
		return fmt.Errorf("error.url_invalid")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("error.url_invalid")
	}

	if len(targetURL) > MaxURLLength {
		return fmt.Errorf("error.url_invalid")
	}
	return nil
}

// NormalizeAlias trims and lowercases a user-chosen alias.
func NormalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// ValidateAlias checks a normalized alias against the length and
// character rules. An empty alias is the caller's case to handle.
func ValidateAlias(alias string) error {
	if len(alias) < AliasMinLength || len(alias) > AliasMaxLength {
		return fmt.Errorf("error.alias_invalid")
	}
	if ContainsWhitespace(alias) || !aliasPattern.MatchString(alias) {
		return fmt.Errorf("error.alias_invalid")
	}
	return nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
