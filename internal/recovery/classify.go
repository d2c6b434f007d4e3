package recovery

import (
	"context"
	"errors"
	"strings"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// Category is a typed failure category. Call sites should tag errors
// with a category via NewError; the textual classifier below is a
// last resort for untyped errors.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryPermission Category = "permission"
	CategoryQuota      Category = "quota"
	CategoryTimeout    Category = "timeout"
	CategoryConnection Category = "connection"
	CategoryValidation Category = "validation"
	CategoryUnknown    Category = "unknown"
)

// ClassifiedError carries a typed category assigned at the call site.
type ClassifiedError struct {
	Category Category
	Err      error
}

func (e *ClassifiedError) Error() string {
	return string(e.Category) + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// NewError tags an error with a failure category.
func NewError(category Category, err error) error {
	return &ClassifiedError{Category: category, Err: err}
}

// severityByCategory maps typed categories to severities.
var severityByCategory = map[Category]domain.Severity{
	CategoryAuth:       domain.SeverityCritical,
	CategoryPermission: domain.SeverityCritical,
	CategoryQuota:      domain.SeverityCritical,
	CategoryTimeout:    domain.SeverityHigh,
	CategoryConnection: domain.SeverityHigh,
	CategoryValidation: domain.SeverityMedium,
	CategoryUnknown:    domain.SeverityLow,
}

// Classify determines the failure category of an error: typed tags
// first, well-known sentinels next, message text last.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	return classifyText(err.Error())
}

// SeverityOf maps a failure category to its severity.
func SeverityOf(category Category) domain.Severity {
	if sev, ok := severityByCategory[category]; ok {
		return sev
	}
	return domain.SeverityLow
}

// textPatterns is the fallback classifier table. First match wins.
var textPatterns = []struct {
	substr   string
	category Category
}{
	{"authentication", CategoryAuth},
	{"unauthorized", CategoryAuth},
	{"invalid api key", CategoryAuth},
	{"permission denied", CategoryPermission},
	{"forbidden", CategoryPermission},
	{"quota exceeded", CategoryQuota},
	{"rate limit", CategoryQuota},
	{"too many requests", CategoryQuota},
	{"timeout", CategoryTimeout},
	{"timed out", CategoryTimeout},
	{"deadline exceeded", CategoryTimeout},
	{"connection refused", CategoryConnection},
	{"connection reset", CategoryConnection},
	{"connection error", CategoryConnection},
	{"no such host", CategoryConnection},
	{"broken pipe", CategoryConnection},
	{"validation", CategoryValidation},
	{"invalid input", CategoryValidation},
	{"malformed", CategoryValidation},
}

func classifyText(msg string) Category {
	lower := strings.ToLower(msg)
	for _, p := range textPatterns {
		if strings.Contains(lower, p.substr) {
			return p.category
		}
	}
	return CategoryUnknown
}
