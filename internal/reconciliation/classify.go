package reconciliation

import "strings"

// CreditClassifier decides whether a sale was made on credit, in which case
// no money changed hands on the day and the sale is left out of inbound.
type CreditClassifier interface {
	IsCreditSale(memo string) bool
}

// ClassifierFunc adapts a plain function to CreditClassifier.
type ClassifierFunc func(memo string) bool

func (f ClassifierFunc) IsCreditSale(memo string) bool { return f(memo) }

// CreditToken is always matched. Configured tokens are alternates on top of it.
const CreditToken = "credit"

// DefaultCreditTokens are matched when no alternates are configured. "deyn"
// is the Somali word for debt and shows up in memos as often as "credit" does.
var DefaultCreditTokens = []string{CreditToken, "deyn"}

// TokenClassifier flags a sale as credit when its trimmed, lowercased memo
// contains any of its tokens.
type TokenClassifier struct {
	tokens []string
}

// NewTokenClassifier builds a classifier over CreditToken plus the given
// alternates, falling back to DefaultCreditTokens when none are usable.
func NewTokenClassifier(alternates ...string) *TokenClassifier {
	cleaned := []string{CreditToken}
	seen := map[string]bool{CreditToken: true}
	configured := false
	for _, t := range alternates {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		configured = true
		if !seen[t] {
			seen[t] = true
			cleaned = append(cleaned, t)
		}
	}
	if !configured {
		cleaned = append([]string(nil), DefaultCreditTokens...)
	}
	return &TokenClassifier{tokens: cleaned}
}

// Tokens returns the normalized tokens in use.
func (c *TokenClassifier) Tokens() []string {
	return append([]string(nil), c.tokens...)
}

func (c *TokenClassifier) IsCreditSale(memo string) bool {
	m := strings.ToLower(strings.TrimSpace(memo))
	if m == "" {
		return false
	}
	for _, t := range c.tokens {
		if strings.Contains(m, t) {
			return true
		}
	}
	return false
}
