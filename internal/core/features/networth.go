package features

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

var integerPattern = regexp.MustCompile(`^-?\d+$`)

// NetWorthFromAssets sums the value column of the assets spreadsheet. Liabilities are
// negative rows; unreadable values count as zero without aborting the sum.
type NetWorthFromAssets struct{}

func (NetWorthFromAssets) Field() string { return domain.FeatureNetWorth }

func (NetWorthFromAssets) Apply(payload domain.RawPayload, _ time.Time, fv *domain.FeatureVector) error {
	if payload.Assets == nil || payload.AssetsError != "" {
		return errNoEvidence
	}

	var total int64
	for _, record := range payload.Assets {
		total += assetValue(record[domain.AssetValueColumn])
	}
	fv.NetWorth = total
	return nil
}

func assetValue(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case float32:
		return roundFloat(float64(val))
	case float64:
		return roundFloat(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return roundFloat(f)
		}
		return 0
	case string:
		return parseAmountString(val)
	default:
		return 0
	}
}

func parseAmountString(raw string) int64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if !integerPattern.MatchString(cleaned) {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func roundFloat(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f))
}
