package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"auctions/internal/models"

	"github.com/shopspring/decimal"
)

// ListingInput is the seller-supplied part of an auction.
type ListingInput struct {
	Title       string
	Description string
	Category    string
	PhotoURL    string
}

// ValidateListing checks required fields and column limits.
func ValidateListing(in ListingInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", models.MaxTitleLength)
	}
	if utf8.RuneCountInString(in.Description) > models.MaxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", models.MaxDescriptionLength)
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Category)) > models.MaxCategoryLength {
		return fmt.Errorf("category must not exceed %d characters", models.MaxCategoryLength)
	}
	if in.PhotoURL != "" {
		u, err := url.Parse(in.PhotoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("photo url must be an absolute http(s) URL")
		}
	}
	return nil
}

// ValidateComment requires non-blank text within the column limit.
func ValidateComment(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", models.MaxCommentLength)
	}
	return nil
}

// maxAmountInput bounds the raw text: a sign, 18 integer digits, a point and 2 decimals,
// with slack for trailing zeros such as "12.500".
const maxAmountInput = 32

// plainAmount is an optional minus, digits and an optional fraction. Exponent
// forms never reach decimal.NewFromString.
var plainAmount = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// ParseAmount reads a money amount with at most two decimal places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	if len(raw) > maxAmountInput || !plainAmount.MatchString(raw) {
		return decimal.Zero, fmt.Errorf("amount must be a number")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount must be a number")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("amount must have at most two decimal places")
	}
	if amount.GreaterThanOrEqual(decimal.New(1, 18)) {
		return decimal.Zero, fmt.Errorf("amount is too large")
	}
	return amount, nil
}
