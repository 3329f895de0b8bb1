package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-budget/internal/common"
	"github.com/Veraticus/spice-budget/internal/sheets"
	"github.com/spf13/viper"
)

// sheetsEnvAliases lists the GOOGLE_SHEETS_* variables accepted next to the
// BUDGET_SHEETS_* form for each sheets key.
var sheetsEnvAliases = []string{
	"client_id",
	"client_secret",
	"refresh_token",
	"service_account_path",
	"spreadsheet_id",
	"spreadsheet_name",
}

// BindSheetsEnv lets each sheets key come from BUDGET_SHEETS_* or GOOGLE_SHEETS_*.
func BindSheetsEnv(v *viper.Viper) error {
	for _, key := range sheetsEnvAliases {
		upper := strings.ToUpper(key)
		if err := v.BindEnv("sheets."+key, "BUDGET_SHEETS_"+upper, "GOOGLE_SHEETS_"+upper); err != nil {
			return fmt.Errorf("binding sheets.%s: %w", key, err)
		}
	}
	return nil
}

// LoadSheetsConfig reads the sheets section of v over sheets.DefaultConfig.
// Explicitly set values win over BUDGET_SHEETS_* variables, which win over
// GOOGLE_SHEETS_* ones.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	if err := BindSheetsEnv(v); err != nil {
		return nil, err
	}

	cfg := sheets.DefaultConfig()
	setString := func(dst *string, key string) {
		if s := v.GetString("sheets." + key); s != "" {
			*dst = s
		}
	}

	setString(&cfg.ClientID, "client_id")
	setString(&cfg.ClientSecret, "client_secret")
	setString(&cfg.RefreshToken, "refresh_token")
	setString(&cfg.ServiceAccountPath, "service_account_path")
	setString(&cfg.SpreadsheetID, "spreadsheet_id")
	setString(&cfg.SpreadsheetName, "spreadsheet_name")
	setString(&cfg.TimeZone, "time_zone")
	if cfg.ServiceAccountPath != "" {
		cfg.ServiceAccountPath = ExpandPath(cfg.ServiceAccountPath)
	}

	if v.IsSet("sheets.batch_size") {
		cfg.BatchSize = v.GetInt("sheets.batch_size")
	}
	if v.IsSet("sheets.retry_attempts") {
		cfg.RetryAttempts = v.GetInt("sheets.retry_attempts")
	}
	if v.IsSet("sheets.retry_delay") {
		cfg.RetryDelay = v.GetDuration("sheets.retry_delay")
	}
	if v.IsSet("sheets.formatting") {
		cfg.EnableFormatting = v.GetBool("sheets.formatting")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// TokenFile is where "export-sheets auth" keeps the OAuth2 token.
func TokenFile(v *viper.Viper) string {
	if s := v.GetString("sheets.token_file"); s != "" {
		return ExpandPath(s)
	}
	return ExpandPath(Dir + "/sheets-token.json")
}
