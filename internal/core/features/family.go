package features

import (
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// FixedFamilySize is a placeholder: no ingested document carries household composition yet.
type FixedFamilySize struct {
	Size int
}

func (FixedFamilySize) Field() string { return domain.FeatureFamilySize }

func (s FixedFamilySize) Apply(_ domain.RawPayload, _ time.Time, fv *domain.FeatureVector) error {
	size := s.Size
	if size <= 0 {
		size = domain.DefaultFamilySize
	}
	fv.FamilySize = size
	return nil
}
