// Package sheets mirrors a user's expense history into a Google spreadsheet.
// Export runs as a background job; the spreadsheet is a convenience copy and
// never read back.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"hisab/internal/core"
)

// Client appends expense rows to one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// NewClient builds a Sheets client from an OAuth client config JSON and a
// previously obtained token JSON.
func NewClient(ctx context.Context, spreadsheetID, oauthClientJSON, tokenJSON string) (*Client, error) {
	conf, err := google.ConfigFromJSON([]byte(oauthClientJSON), gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client config: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// sheetRange targets the export tab. The header row is written on first
// export and rows append below it.
const sheetRange = "Expenses!A:E"

// ExportExpenses replaces the export tab's contents with the given expenses.
func (c *Client) ExportExpenses(ctx context.Context, expenses []core.Expense) error {
	values := make([][]any, 0, len(expenses)+1)
	values = append(values, []any{"Date", "Description", "Amount", "Category", "Tags"})
	for _, e := range expenses {
		name := e.CategoryName
		if name == "" {
			name = "Uncategorized"
		}
		values = append(values, []any{
			e.SpentAt.Format("2006-01-02"),
			e.Description,
			e.Amount.Float(),
			name,
			e.Tags,
		})
	}

	clear := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheetRange, &gsheet.ClearValuesRequest{})
	if _, err := clear.Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	update := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetRange, &gsheet.ValueRange{Values: values})
	if _, err := update.ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	return nil
}
