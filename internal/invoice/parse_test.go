package invoice

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestParseFields_StoreName_GenericSuffix(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"cjk suffix", "全聯福利中心超市\n總計: 100", "全聯福利中心超市"},
		{"latin suffix", "SUNSHINE MARKET\n2024-01-02", "SUNSHINE MARKET"},
		{"latin suffix lowercase", "corner shop\nitems below", "corner shop"},
		{"no match", "random text with nothing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFields(tt.text).StoreName
			if got != tt.want {
				t.Errorf("StoreName: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFields_StoreName_ChainLiteral(t *testing.T) {
	// A bare chain name must match even without any generic suffix.
	fields := ParseFields("7-ELEVEN\n發票號碼 AB123456\n總計: 85")
	if fields.StoreName != "7-ELEVEN" {
		t.Errorf("StoreName: got %q, want 7-ELEVEN", fields.StoreName)
	}

	fields = ParseFields("家樂福\n2024/05/01")
	if fields.StoreName != "家樂福" {
		t.Errorf("StoreName: got %q, want 家樂福", fields.StoreName)
	}
}

func TestParseFields_TotalAmount_LabelBeatsCurrency(t *testing.T) {
	// A labeled total outranks a bare currency-prefixed number appearing
	// earlier in the text.
	text := "Coffee $15.00\nTotal: 250.00\n"
	fields := ParseFields(text)
	if fields.TotalAmount != 250.00 {
		t.Errorf("TotalAmount: got %v, want 250.00", fields.TotalAmount)
	}
}

func TestParseFields_TotalAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"cjk total label", "總計: 1250.50", 1250.50},
		{"cjk sum label", "合計：300", 300},
		{"cjk grand total label", "總額: 99.99", 99.99},
		{"english label", "TOTAL: 42.75", 42.75},
		{"nt currency", "NT$ 120", 120},
		{"bare currency", "$ 15.00", 15.00},
		{"fullwidth colon", "總計：888", 888},
		{"nothing", "no numbers with labels here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFields(tt.text).TotalAmount
			if got != tt.want {
				t.Errorf("TotalAmount: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFields_Date(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"iso dash", "date 2024-03-15 thanks", "2024-03-15"},
		{"iso slash", "2024/3/5", "2024/3/5"},
		{"us order", "03/15/2024", "03/15/2024"},
		{"cjk long form", "中華民國發票 2024年3月15日", "2024年3月15日"},
		{"none", "no date here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFields(tt.text).Date
			if got != tt.want {
				t.Errorf("Date: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFields_DatePriority(t *testing.T) {
	// The ISO shape is tried first even when a US-shaped date appears
	// earlier in the text.
	fields := ParseFields("03/15/2024\n2024-03-15")
	if fields.Date != "2024-03-15" {
		t.Errorf("Date: got %q, want 2024-03-15", fields.Date)
	}
}

func TestParseFields_Items(t *testing.T) {
	text := "Instant Noodles 35.00\nMilk 2L 82.00\nok 5\nBread 28\n"
	items := ParseFields(text).Items

	want := []LineItem{
		{Name: "Instant Noodles", Price: 35.00, Quantity: 1},
		{Name: "Milk L", Price: 2, Quantity: 1},
		{Name: "Bread", Price: 28, Quantity: 1},
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("Items:\n got %+v\nwant %+v", items, want)
	}
}

func TestParseFields_Items_Cap(t *testing.T) {
	// 15 candidate lines must be truncated to 10, preserving first-seen order.
	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, fmt.Sprintf("Product %c 10.00", 'A'+i))
	}
	items := ParseFields(strings.Join(lines, "\n")).Items

	if len(items) != 10 {
		t.Fatalf("item count: got %d, want 10", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("Product %c", 'A'+i)
		if item.Name != want {
			t.Errorf("item %d: got name %q, want %q", i, item.Name, want)
		}
		if item.Price != 10.00 || item.Quantity != 1 {
			t.Errorf("item %d: got price %v quantity %d", i, item.Price, item.Quantity)
		}
	}
}

func TestParseFields_Items_ShortLinesSkipped(t *testing.T) {
	// A candidate line needs a decimal token AND more than 5 characters.
	items := ParseFields("ab 12\nno digits on this line\nValid Product 45.50").Items
	if len(items) != 1 {
		t.Fatalf("item count: got %d, want 1", len(items))
	}
	if items[0].Name != "Valid Product" || items[0].Price != 45.50 {
		t.Errorf("got %+v", items[0])
	}
}

func TestParseFields_Idempotent(t *testing.T) {
	text := "7-ELEVEN\n2024-03-15\nCoffee 55.00\nSandwich 45.00\n總計: 100.00\n"
	first := ParseFields(text)
	second := ParseFields(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestParseFields_EmptyText(t *testing.T) {
	fields := ParseFields("")
	if fields.StoreName != "" || fields.TotalAmount != 0 || fields.Date != "" {
		t.Errorf("empty text should yield defaults, got %+v", fields)
	}
	if fields.Items == nil || len(fields.Items) != 0 {
		t.Errorf("Items should be an empty non-nil slice, got %#v", fields.Items)
	}
}
