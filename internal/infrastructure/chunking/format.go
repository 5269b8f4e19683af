package chunking

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// FormatHolding renders one holdings row as the labelled block the index
// stores and the model reads. The trailing "---" separates rows inside a
// chunk.
func FormatHolding(r domain.HoldingRecord) string {
	return fmt.Sprintf(`Security: %s (%s)
Portfolio: %s
Quantity: %s
Price: $%s
Market Value (Base): $%s
P&L Year-to-Date: $%s
P&L Quarter-to-Date: $%s
Strategy: %s
Custodian: %s
Direction: %s
Open Date: %s
---`,
		r.SecName, r.SecurityType,
		r.PortfolioName,
		groupInt(r.Qty),
		groupFloat(r.Price),
		groupFloat(r.MVBase),
		groupFloat(r.PLYTD),
		groupFloat(r.PLQTD),
		r.Strategy,
		r.Custodian,
		r.Direction,
		formatDate(r.OpenDate),
	)
}

// FormatTrade renders one trades row in the same labelled-block style.
func FormatTrade(r domain.TradeRecord) string {
	return fmt.Sprintf(`Trade Type: %s
Security: %s (%s)
Portfolio: %s
Quantity: %s
Price: $%s
Total Cash: $%s
Principal: $%s
Trade Date: %s
Strategy: %s
Custodian: %s
Counterparty: %s
---`,
		r.TradeType,
		r.SecurityName, r.SecurityType,
		r.PortfolioName,
		groupInt(r.Quantity),
		groupFloat(r.Price),
		groupFloat(r.TotalCash),
		groupFloat(r.Principal),
		orUnknown(r.TradeDate),
		r.Strategy,
		r.Custodian,
		r.Counterparty,
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// groupFloat renders v with two decimals and comma thousands separators,
// e.g. 1234567.5 -> "1,234,567.50".
func groupFloat(v float64) string {
	neg := math.Signbit(v)
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	out := groupDigits(whole) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// groupInt renders v rounded to a whole number with separators.
func groupInt(v float64) string {
	neg := math.Signbit(v)
	s := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)
	out := groupDigits(s)
	if neg && out != "0" {
		return "-" + out
	}
	return out
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
