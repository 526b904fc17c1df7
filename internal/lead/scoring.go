package lead

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// WeightTolerance is how far the four weights may drift from summing
// to exactly 1.0 before the criteria are rejected.
const WeightTolerance = 0.01

var validate = validator.New()

// ScoringCriteria weights the four factors the service scores leads
// by. Held in memory only; the operator edits it, and cancel resets it
// to uniform quarters.
type ScoringCriteria struct {
	CompanySizeWeight       float64 `json:"company_size_weight" validate:"gte=0,lte=1"`
	JobTitleWeight          float64 `json:"job_title_weight" validate:"gte=0,lte=1"`
	IndustryRelevanceWeight float64 `json:"industry_relevance_weight" validate:"gte=0,lte=1"`
	EngagementWeight        float64 `json:"engagement_weight" validate:"gte=0,lte=1"`
}

// DefaultScoringCriteria returns uniform quarter weights.
func DefaultScoringCriteria() ScoringCriteria {
	return ScoringCriteria{
		CompanySizeWeight:       0.25,
		JobTitleWeight:          0.25,
		IndustryRelevanceWeight: 0.25,
		EngagementWeight:        0.25,
	}
}

// Total sums the four weights.
func (c ScoringCriteria) Total() float64 {
	return c.CompanySizeWeight + c.JobTitleWeight + c.IndustryRelevanceWeight + c.EngagementWeight
}

// ErrWeightSum is returned when the weights do not total 1.0 within
// tolerance. The save action stays blocked while this holds, without
// discarding the operator's edits.
var ErrWeightSum = errors.New("scoring weights must total 100%")

// Validate checks each weight's range and the sum invariant.
func (c ScoringCriteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("scoring weights out of range: %w", err)
	}
	if math.Abs(c.Total()-1.0) >= WeightTolerance {
		return fmt.Errorf("%w (got %.0f%%)", ErrWeightSum, c.Total()*100)
	}
	return nil
}

// ValidateDraft checks a lead draft's required fields and email shape
// before it is sent to the service.
func ValidateDraft(d Draft) error {
	if err := validate.Struct(d); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			f := fields[0]
			if f.Tag() == "email" {
				return fmt.Errorf("%s is not a valid email address", f.Value())
			}
			return fmt.Errorf("%s is required", fieldLabel(f.Field()))
		}
		return err
	}
	return nil
}

func fieldLabel(name string) string {
	switch name {
	case "FirstName":
		return "first name"
	case "LastName":
		return "last name"
	case "Email":
		return "email"
	case "Company":
		return "company"
	case "CompanySize":
		return "company size"
	case "JobTitle":
		return "job title"
	case "Industry":
		return "industry"
	default:
		return name
	}
}
