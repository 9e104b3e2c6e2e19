package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FeatureCount is the number of classifier inputs.
const FeatureCount = 5

// DefaultFamilySize is used until a document feeds family size.
const DefaultFamilySize = 3

const (
	FeatureIncome          = "income"
	FeatureEmploymentYears = "employment_years"
	FeatureAge             = "age"
	FeatureNetWorth        = "net_worth"
	FeatureFamilySize      = "family_size"
)

// FeatureNames lists the classifier inputs in model order.
var FeatureNames = [FeatureCount]string{
	FeatureIncome,
	FeatureEmploymentYears,
	FeatureAge,
	FeatureNetWorth,
	FeatureFamilySize,
}

// FeatureLabels are the display names used in explanations, aligned with FeatureNames.
var FeatureLabels = [FeatureCount]string{
	"Income",
	"Employment Years",
	"Age",
	"Net Worth",
	"Family Size",
}

// Age is a calendar age in years or the unknown state. The zero value is unknown.
type Age struct {
	years int
	known bool
}

func KnownAge(years int) Age { return Age{years: years, known: true} }

func UnknownAge() Age { return Age{} }

func (a Age) Years() (int, bool) { return a.years, a.known }

func (a Age) Known() bool { return a.known }

func (a Age) String() string {
	if !a.known {
		return "unknown"
	}
	return strconv.Itoa(a.years)
}

func (a Age) MarshalJSON() ([]byte, error) {
	if !a.known {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(a.years)), nil
}

func (a *Age) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = UnknownAge()
		return nil
	}
	var years int
	if err := json.Unmarshal(data, &years); err != nil {
		return fmt.Errorf("age: %w", err)
	}
	if years < 0 {
		return fmt.Errorf("age: negative value %d", years)
	}
	*a = KnownAge(years)
	return nil
}

// FeatureVector is the five-feature representation of an applicant.
type FeatureVector struct {
	Income          int64 `json:"income"`
	EmploymentYears int   `json:"employment_years"`
	Age             Age   `json:"age"`
	NetWorth        int64 `json:"net_worth"`
	FamilySize      int   `json:"family_size"`
}

// DefaultFeatureVector holds every field's documented fallback.
func DefaultFeatureVector() FeatureVector {
	return FeatureVector{
		Income:          0,
		EmploymentYears: 0,
		Age:             UnknownAge(),
		NetWorth:        0,
		FamilySize:      DefaultFamilySize,
	}
}

// ModelInput returns the vector in model order. Callers must gate on a known age first.
func (v FeatureVector) ModelInput() ([FeatureCount]float64, error) {
	years, ok := v.Age.Years()
	if !ok {
		return [FeatureCount]float64{}, WrapError(ErrInvalidInput, "model input", fmt.Errorf("age is unknown"))
	}
	return [FeatureCount]float64{
		float64(v.Income),
		float64(v.EmploymentYears),
		float64(years),
		float64(v.NetWorth),
		float64(v.FamilySize),
	}, nil
}
