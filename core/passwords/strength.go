// Package passwords scores candidate passwords and enforces the minimum the
// dashboard and CLI require before a token is encrypted.
package passwords

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Strength string

const (
	Weak   Strength = "weak"
	Medium Strength = "medium"
	Strong Strength = "strong"
)

const (
	MinLength         = 8
	RecommendedLength = 12
)

// Feedback messages, in the order the checks run.
const (
	FeedbackTooShort      = "too short (minimum 8)"
	FeedbackUseLonger     = "use at least 12 characters"
	FeedbackAddLowercase  = "add lowercase letters"
	FeedbackAddUppercase  = "add uppercase letters"
	FeedbackAddNumbers    = "add numbers"
	FeedbackAddSymbols    = "add symbols"
	FeedbackAvoidPatterns = "avoid common words and patterns"
)

var commonPatterns = []string{"password", "123456", "qwerty", "admin", "letmein", "welcome"}

// Result is recomputed on every evaluation and never persisted.
type Result struct {
	Strength Strength `json:"strength"`
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
}

func (s Strength) rank() int {
	switch s {
	case Weak:
		return 0
	case Medium:
		return 1
	case Strong:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether s meets or exceeds minimum.
func (s Strength) AtLeast(minimum Strength) bool {
	return s.rank() >= minimum.rank()
}

// ParseStrength accepts weak, medium or strong in any case.
func ParseStrength(value string) (Strength, error) {
	s := Strength(strings.ToLower(strings.TrimSpace(value)))
	if s.rank() < 0 {
		return "", fmt.Errorf("unknown password strength %q", value)
	}
	return s, nil
}

// Evaluate scores password. It is advisory: nothing in the encryption layer
// rejects a password because of its score.
func Evaluate(password string) Result {
	score := 0
	feedback := []string{}

	switch length := utf8.RuneCountInString(password); {
	case length >= RecommendedLength:
		score += 2
	case length >= MinLength:
		score++
		feedback = append(feedback, FeedbackUseLonger)
	default:
		feedback = append(feedback, FeedbackTooShort)
	}

	// Classes are ASCII; any other character, accented letters included, is a symbol.
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := []struct {
		present  bool
		feedback string
	}{
		{hasLower, FeedbackAddLowercase},
		{hasUpper, FeedbackAddUppercase},
		{hasDigit, FeedbackAddNumbers},
		{hasSymbol, FeedbackAddSymbols},
	}
	for _, class := range classes {
		if class.present {
			score++
		} else {
			feedback = append(feedback, class.feedback)
		}
	}

	if containsCommonPattern(password) {
		score = max(score-2, 0)
		feedback = append(feedback, FeedbackAvoidPatterns)
	}

	return Result{
		Strength: classify(score),
		Score:    score,
		Feedback: feedback,
	}
}

func classify(score int) Strength {
	switch {
	case score <= 2:
		return Weak
	case score <= 4:
		return Medium
	default:
		return Strong
	}
}

func containsCommonPattern(password string) bool {
	lowered := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
