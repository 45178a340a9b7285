package invoice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Fields is the extractor output. Absent fields keep their zero values.
type Fields struct {
	StoreName   string
	TotalAmount float64
	Date        string
	Items       []LineItem
}

// The rule tables below are evaluated top to bottom; the first match wins.
// Keeping them as data rather than control flow makes each locale extensible
// and independently testable.

// storeRules: generic "<name><store-type-suffix>" shapes first, then literal
// Taiwanese convenience and hypermarket chains. Every rule captures the store
// name in group 1, including the literal alternations.
var storeRules = []*regexp.Regexp{
	regexp.MustCompile(`([^\n]+(?:商店|超市|便利商店|百貨|商場|市場|店))`),
	regexp.MustCompile(`(?i)([^\n]+(?:Store|Market|Shop|Mall))`),
	regexp.MustCompile(`(統一超商|7-ELEVEN|全家|萊爾富|OK超商)`),
	regexp.MustCompile(`(家樂福|大潤發|愛買|全聯|頂好)`),
}

// amountRules: labeled totals outrank bare currency-prefixed numbers, since
// a stray "$15.00" mid-receipt is more likely a unit price than the total.
var amountRules = []*regexp.Regexp{
	regexp.MustCompile(`總計[：:]\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`合計[：:]\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`總額[：:]\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)Total[：:]\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`NT\$\s*(\d+(?:\.\d{2})?)`),
	regexp.MustCompile(`\$\s*(\d+(?:\.\d{2})?)`),
}

// dateRules: ISO-ish, US-ish, then the long CJK form.
var dateRules = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{4})`),
	regexp.MustCompile(`(\d{4}年\d{1,2}月\d{1,2}日)`),
}

// decimalToken matches prices and any other decimal-number substrings.
var decimalToken = regexp.MustCompile(`\d+(?:\.\d{2})?`)

// ParseFields extracts the structured purchase fields from fused OCR text.
//
// It is a pure function and never fails: a field with no matching pattern is
// simply left at its default. Running it twice over the same text yields
// identical results.
func ParseFields(text string) Fields {
	return Fields{
		StoreName:   matchFirst(storeRules, text),
		TotalAmount: matchAmount(amountRules, text),
		Date:        matchFirst(dateRules, text),
		Items:       parseItems(text),
	}
}

// matchFirst returns the trimmed first capture of the first rule that matches
// anywhere in the text, or "".
func matchFirst(rules []*regexp.Regexp, text string) string {
	for _, rule := range rules {
		if m := rule.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// matchAmount returns the first captured number that parses as a valid
// non-negative decimal, or 0.
func matchAmount(rules []*regexp.Regexp, text string) float64 {
	for _, rule := range rules {
		m := rule.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return amount
	}
	return 0
}

// parseItems scans the text line by line: any trimmed line longer than 5
// characters containing a decimal token is an item candidate. The first
// decimal is the price, the line with all decimals stripped is the name,
// quantity is always 1. Lines already matched as store/date/total are not
// excluded, so those can surface as noisy items; downstream accounting
// reads only the invoice total.
func parseItems(text string) []LineItem {
	items := make([]LineItem, 0, maxItems)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 5 {
			continue
		}
		price := decimalToken.FindString(line)
		if price == "" {
			continue
		}

		name := strings.TrimSpace(decimalToken.ReplaceAllString(line, ""))
		if utf8.RuneCountInString(name) <= 1 {
			continue
		}

		value, err := strconv.ParseFloat(price, 64)
		if err != nil {
			continue
		}
		items = append(items, LineItem{Name: name, Price: value, Quantity: 1})
		if len(items) == maxItems {
			break
		}
	}
	return items
}
