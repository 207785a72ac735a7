// Package bidding decides whether a bid is admissible and who leads or wins an auction.
// Everything here is pure; persistence and locking live in the repository layer.
package bidding

import (
	"auctions/internal/models"

	"github.com/shopspring/decimal"
)

// Reason explains a rejected bid.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNonPositiveAmount  Reason = "non_positive_amount"
	ReasonBelowStartingPrice Reason = "below_starting_price"
	ReasonBelowCurrentLead   Reason = "below_current_lead"
	ReasonAuctionClosed      Reason = "auction_closed"
)

// Message is the user-facing text for a rejection.
func (r Reason) Message() string {
	switch r {
	case ReasonNonPositiveAmount:
		return "Bid price must be a positive amount."
	case ReasonBelowStartingPrice:
		return "Bid price is smaller than starting bid price."
	case ReasonBelowCurrentLead:
		return "Bid price is smaller than other bids."
	case ReasonAuctionClosed:
		return "Auction is closed."
	default:
		return ""
	}
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Accepted bool
	Reason   Reason
}

// Err converts a rejection into a validation error, or nil when accepted.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return models.NewValidationError(d.Reason.Message())
}

// Evaluate checks a proposed amount against the starting price and the existing bids.
// A bid must be strictly greater than both.
func Evaluate(startingPrice decimal.Decimal, bids []models.Bid, proposed decimal.Decimal) Decision {
	if !proposed.IsPositive() {
		return Decision{Reason: ReasonNonPositiveAmount}
	}
	if proposed.LessThanOrEqual(startingPrice) {
		return Decision{Reason: ReasonBelowStartingPrice}
	}
	if lead, ok := LeadingBid(bids); ok && proposed.LessThanOrEqual(lead.Amount) {
		return Decision{Reason: ReasonBelowCurrentLead}
	}
	return Decision{Accepted: true}
}

// EvaluateForAuction is Evaluate plus the closed-auction check.
func EvaluateForAuction(auction *models.Auction, bids []models.Bid, proposed decimal.Decimal) Decision {
	if auction.IsClosed() {
		return Decision{Reason: ReasonAuctionClosed}
	}
	return Evaluate(auction.StartingPrice, bids, proposed)
}

// LeadingBid returns the highest bid. Equal amounts resolve to the earliest bid.
func LeadingBid(bids []models.Bid) (models.Bid, bool) {
	if len(bids) == 0 {
		return models.Bid{}, false
	}
	lead := bids[0]
	for _, b := range bids[1:] {
		if outranks(b, lead) {
			lead = b
		}
	}
	return lead, true
}

func outranks(a, b models.Bid) bool {
	if !a.Amount.Equal(b.Amount) {
		return a.Amount.GreaterThan(b.Amount)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// CurrentPrice is the leading amount, or the starting price when nobody has bid.
func CurrentPrice(startingPrice decimal.Decimal, bids []models.Bid) decimal.Decimal {
	if lead, ok := LeadingBid(bids); ok {
		return lead.Amount
	}
	return startingPrice
}

// SelectWinner names the auction winner. With no bids the owner keeps the item.
func SelectWinner(owner string, bids []models.Bid) string {
	if lead, ok := LeadingBid(bids); ok {
		return lead.BidderUsername
	}
	return owner
}
