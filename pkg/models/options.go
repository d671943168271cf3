package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Options customises newsletter generation. Nil fields are left to the
// backend defaults.
type Options struct {
	IncludeSubtopics        *bool `json:"include_subtopics,omitempty"`
	MaxRecommendationLength *int  `json:"max_recommendation_length,omitempty" validate:"omitempty,gt=0"`
}

// IsZero reports whether no option was set
func (o Options) IsZero() bool {
	return o.IncludeSubtopics == nil && o.MaxRecommendationLength == nil
}

// Validate checks option bounds before anything is sent
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: max_recommendation_length must be greater than 0")
	}
	return nil
}
