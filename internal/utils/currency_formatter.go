package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/hance08/dtl/internal/constants"
)

// FormatAmount renders a whole token amount with thousands separators.
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// ShortHash keeps the head and tail of a hash or address for table cells.
func ShortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:8] + "…" + hash[len(hash)-6:]
}

func FormatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).Local().Format(constants.DateTimeFormat)
}
