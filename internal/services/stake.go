package services

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AmountExtractor derives the staked amount from a stake record.
type AmountExtractor interface {
	// Amount returns the amount for a stake given its free-text description
	// and the stored JSON payload.
	Amount(description string, payload []byte) int64
}

// TrailingDigitsAmount reads the amount from the run of digits that ends the
// description ("big59" -> 59). Stored stakes carry no numeric amount column,
// so this is the compatible default.
type TrailingDigitsAmount struct{}

func (TrailingDigitsAmount) Amount(description string, _ []byte) int64 {
	_, digits := splitTrailingDigits(description)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// StructuredAmount prefers an explicit data.amount field in the payload and
// falls back to TrailingDigitsAmount when it is absent or unusable.
type StructuredAmount struct{}

func (StructuredAmount) Amount(description string, payload []byte) int64 {
	var doc struct {
		Data struct {
			Amount json.Number `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &doc); err == nil && doc.Data.Amount != "" {
		if n, err := doc.Data.Amount.Int64(); err == nil && n >= 0 {
			return n
		}
		if f, err := doc.Data.Amount.Float64(); err == nil && f >= 0 {
			return int64(f)
		}
	}
	return TrailingDigitsAmount{}.Amount(description, payload)
}

// stakeSeparators may sit between the choice and the amount ("big-50",
// "13:20", "odd @ 10").
const stakeSeparators = " -:@*"

// stakeLabels maps a normalized choice to its display label. Legacy rows
// store the choice in Chinese; both spellings resolve to the same label.
var stakeLabels = map[string]string{
	"big":        "Big",
	"small":      "Small",
	"odd":        "Odd",
	"even":       "Even",
	"big_odd":    "Big Odd",
	"big_even":   "Big Even",
	"small_odd":  "Small Odd",
	"small_even": "Small Even",
	"max":        "Max",
	"min":        "Min",
	"leopard":    "Leopard",
	"straight":   "Straight",
	"pair":       "Pair",

	"大":  "Big",
	"小":  "Small",
	"单":  "Odd",
	"双":  "Even",
	"大单": "Big Odd",
	"大双": "Big Even",
	"小单": "Small Odd",
	"小双": "Small Even",
	"极大": "Max",
	"极小": "Min",
	"豹子": "Leopard",
	"顺子": "Straight",
	"对子": "Pair",
}

// maxPointChoice is the highest sum that can be staked on directly.
const maxPointChoice = 27

// splitTrailingDigits splits s into the text before its final run of ASCII
// digits and that run.
func splitTrailingDigits(s string) (head, digits string) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[:i], s[i:]
}

// stakeChoice returns the normalized choice of a description: the text
// without its trailing amount and separators, lower-cased.
func stakeChoice(description string) string {
	head, _ := splitTrailingDigits(description)
	head = strings.TrimRight(head, stakeSeparators)
	return strings.ToLower(strings.TrimSpace(head))
}

// formatStake renders one stake as "<Label>-<amount>", "<n>pt-<amount>" for
// point choices, or "None-<amount>" when the choice is not recognized.
func formatStake(description string, amount int64) string {
	choice := stakeChoice(description)
	amt := strconv.FormatInt(amount, 10)
	if label, ok := stakeLabels[choice]; ok {
		return label + "-" + amt
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 0 && n <= maxPointChoice && isDigits(choice) {
		return strconv.Itoa(n) + "pt-" + amt
	}
	return "None-" + amt
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
