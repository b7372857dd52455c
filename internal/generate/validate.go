package generate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinCount       = 1
	MaxCount       = 10
	MaxTopicLength = 200
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateRequest checks user-supplied fields before a prompt is built. The
// excerpt comes from the uploaded document and is not checked.
func ValidateRequest(req Request) error {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return &ValidationError{Field: "topic", Reason: "is required"}
	}
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return &ValidationError{Field: "topic", Reason: fmt.Sprintf("must be at most %d characters", MaxTopicLength)}
	}
	if injectionPattern.MatchString(topic) {
		return &ValidationError{Field: "topic", Reason: "contains disallowed instructions"}
	}
	if req.Count < MinCount || req.Count > MaxCount {
		return &ValidationError{Field: "count", Reason: fmt.Sprintf("must be between %d and %d", MinCount, MaxCount)}
	}
	return nil
}
