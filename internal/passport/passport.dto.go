package passport

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	DefaultStampLimit = 20
	MaxStampLimit     = 100
)

var accessCodePattern = regexp.MustCompile(`^[A-Z0-9-]{3,32}$`)

type CheckinRequest struct {
	AccessCode string `json:"accessCode"`
}

// Normalize trims and upper-cases the access code, then validates it.
func (r *CheckinRequest) Normalize() error {
	code, err := NormalizeAccessCode(r.AccessCode)
	if err != nil {
		return err
	}
	r.AccessCode = code
	return nil
}

func NormalizeAccessCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	err := validation.Validate(code,
		validation.Required.Error("access code is required"),
		validation.Match(accessCodePattern).Error("access code must be 3-32 letters, digits or dashes"),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}
	return code, nil
}

type StampQuery struct {
	Limit  int
	Offset int
	Rarity *Rarity
}

// Normalize applies the default limit and rejects out of range paging.
func (q *StampQuery) Normalize() error {
	if q.Limit == 0 {
		q.Limit = DefaultStampLimit
	}
	err := validation.ValidateStruct(q,
		validation.Field(&q.Limit, validation.Min(1), validation.Max(MaxStampLimit)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("invalid stamp query: %s: %w", err.Error(), ErrValidation)
	}
	return nil
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (r *RegisterDeviceRequest) Validate() error {
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
	err := validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required, validation.Length(10, 4096)),
		validation.Field(&r.Platform, validation.Required, validation.In("ios", "android", "web")),
	)
	if err != nil {
		return fmt.Errorf("invalid device registration: %s: %w", err.Error(), ErrValidation)
	}
	return nil
}
