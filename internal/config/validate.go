package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"ConcentrationPanel/internal/model"
	"ConcentrationPanel/internal/source"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use yaml tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s: failed %q check", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
		}
		return err
	}

	seen := make(map[string]bool, len(c.Funds))
	for i, f := range c.Funds {
		if seen[f.Name] {
			return fmt.Errorf("funds[%d].name %q is duplicated", i, f.Name)
		}
		seen[f.Name] = true
	}

	if err := c.PeriodRange().Validate(); err != nil {
		return fmt.Errorf("period: %w", err)
	}
	for _, enc := range c.Holdings.Encodings {
		if !source.KnownEncoding(enc) {
			return fmt.Errorf("holdings.encodings: unsupported encoding %q", enc)
		}
	}
	if c.Schedule.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}

// PeriodRange returns the configured inclusive period bounds.
func (c *Config) PeriodRange() model.PeriodRange {
	return model.PeriodRange{Start: model.Period(c.Period.Start), End: model.Period(c.Period.End)}
}
