// Package sheets exports spending reports to Google Sheets.
package sheets

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSpreadsheetName names spreadsheets created without an explicit title.
const DefaultSpreadsheetName = "Spending Report"

// AuthMethod is how the writer authenticates against the Sheets API.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthOAuth2
	AuthServiceAccount
	authAmbiguous
)

func (a AuthMethod) String() string {
	switch a {
	case AuthOAuth2:
		return "oauth2"
	case AuthServiceAccount:
		return "service account"
	case authAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Config describes the target spreadsheet and the credentials used to reach
// it. Either ServiceAccountPath or all three OAuth2 fields must be set.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		EnableFormatting: true,
	}
}

// Auth reports which credentials c carries.
func (c Config) Auth() AuthMethod {
	oauth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	sa := c.ServiceAccountPath != ""
	switch {
	case oauth && sa:
		return authAmbiguous
	case sa:
		return AuthServiceAccount
	case oauth:
		return AuthOAuth2
	}
	return AuthNone
}

// Validate returns every problem with c joined into one error.
func (c Config) Validate() error {
	var errs []error

	switch c.Auth() {
	case AuthNone:
		errs = append(errs, errors.New("no authentication method configured"))
	case authAmbiguous:
		errs = append(errs, errors.New("multiple authentication methods configured; use either OAuth2 or service account"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.RetryAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			errs = append(errs, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err))
		}
	}

	return errors.Join(errs...)
}
