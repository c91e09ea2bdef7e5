package economic

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// The filter grammar puts a $ before every operator, e.g.
// date$gte:2024-01-01$and:voucherNumber$eq:70492.
const (
	filterAnd      = "$and:"
	filterDateOnly = "2006-01-02"
)

// DateRangeFilter restricts results to entries dated within [start, end].
func DateRangeFilter(start, end time.Time) string {
	return fmt.Sprintf("date$gte:%s%sdate$lte:%s",
		start.Format(filterDateOnly), filterAnd, end.Format(filterDateOnly))
}

// VoucherFilter matches documents attached to a voucher number, optionally
// within one accounting year.
func VoucherFilter(voucherNumber int, accountingYear string) string {
	filter := fmt.Sprintf("voucherNumber$eq:%d", voucherNumber)
	if accountingYear != "" {
		filter += filterAnd + fmt.Sprintf("accountingYear$eq:%s", accountingYear)
	}

	return filter
}

// And combines filter expressions, skipping empty ones.
func And(filters ...string) string {
	return strings.Join(lo.Filter(filters, func(f string, _ int) bool {
		return f != ""
	}), filterAnd)
}
