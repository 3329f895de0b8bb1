package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/Veraticus/spice-budget/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client is the subset of the Sheets API the writer needs.
type Client interface {
	CreateSpreadsheet(ctx context.Context, title, timeZone, sheetTitle string) (id, url string, err error)
	CheckSpreadsheet(ctx context.Context, spreadsheetID string) error
	ClearValues(ctx context.Context, spreadsheetID, rng string) error
	UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

type apiClient struct {
	service *sheets.Service
}

// NewAPIClient creates a Client backed by the Google Sheets API.
func NewAPIClient(ctx context.Context, config Config) (Client, error) {
	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, err
	}
	return &apiClient{service: srv}, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.Auth() == AuthServiceAccount {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

func (c *apiClient) CreateSpreadsheet(ctx context.Context, title, timeZone, sheetTitle string) (string, string, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    title,
			TimeZone: timeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetTitle}},
		},
	}

	created, err := c.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", "", classifyError(err)
	}
	return created.SpreadsheetId, created.SpreadsheetUrl, nil
}

func (c *apiClient) CheckSpreadsheet(ctx context.Context, spreadsheetID string) error {
	_, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return classifyError(err)
}

func (c *apiClient) ClearValues(ctx context.Context, spreadsheetID, rng string) error {
	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return classifyError(err)
}

func (c *apiClient) UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return classifyError(err)
}

func (c *apiClient) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return classifyError(err)
}

// classifyError marks rate limits for backoff and other client errors as
// permanent so common.WithRetry stops early.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return common.Permanent(err)
	default:
		return err
	}
}
