package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/petasbytes/toolgraph/internal/config"
)

type RecordResultInput struct {
	FinalAnswer string `json:"final_answer" jsonschema:"required" jsonschema_description:"The final answer or summary to save as a new spreadsheet row."`
}

const sheetTimestampLayout = "2006-01-02 15:04:05"

// SheetRecorder appends [timestamp, text] rows to one Google Sheet range.
type SheetRecorder struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
	initErr       error

	now func() time.Time
}

// NewSheetRecorder builds the Sheets client from cfg. Missing configuration is
// not an error here: the recorder reports ERR_NOT_CONFIGURED on every call so
// the rest of the toolbox keeps working. Extra opts are appended after the
// ones derived from cfg.
func NewSheetRecorder(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) *SheetRecorder {
	r := &SheetRecorder{spreadsheetID: cfg.SpreadsheetID, rng: cfg.Range, now: time.Now}
	if r.rng == "" {
		r.rng = "Sheet1!A:B"
	}
	if cfg.SpreadsheetID == "" {
		r.initErr = errors.New("no spreadsheet configured (set AGT_SHEETS_ID)")
		return r
	}

	var base []option.ClientOption
	if cfg.Endpoint != "" {
		base = append(base, option.WithEndpoint(cfg.Endpoint))
	}
	if len(opts) == 0 {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			r.initErr = fmt.Errorf("credentials file %q: %w", cfg.CredentialsFile, err)
			return r
		}
		base = append(base,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
	}

	svc, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		r.initErr = fmt.Errorf("sheets client: %w", err)
		return r
	}
	r.values = svc.Spreadsheets.Values
	return r
}

// Err reports why the recorder cannot write, or nil.
func (r *SheetRecorder) Err() error { return r.initErr }

// SetClock replaces the timestamp source.
func (r *SheetRecorder) SetClock(now func() time.Time) { r.now = now }

func RecordResultDefinition(r *SheetRecorder) ToolDefinition {
	return NewTool("record_result",
		"Save the final answer as a new row in the results spreadsheet. Call once the answer is complete.",
		func(ctx context.Context, in RecordResultInput) Result {
			return r.Record(ctx, in.FinalAnswer)
		})
}

// Record appends one row and returns a confirmation naming the updated range.
func (r *SheetRecorder) Record(ctx context.Context, text string) Result {
	if r.initErr != nil {
		return Failure(ErrNotConfigured, "record_result: %v", r.initErr)
	}
	if strings.TrimSpace(text) == "" {
		return Failure(ErrInvalidArgs, "final_answer must not be empty")
	}

	row := &sheets.ValueRange{
		Values: [][]interface{}{{r.now().Format(sheetTimestampLayout), text}},
	}
	resp, err := r.values.Append(r.spreadsheetID, r.rng, row).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return Failure(ErrUpstream, "sheets append: status %d: %s", apiErr.Code, apiErr.Message)
		}
		return Failure(classify(err), "sheets append: %v", err)
	}

	where := r.rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		where = resp.Updates.UpdatedRange
	}
	return Success(fmt.Sprintf("Successfully saved the result to Google Sheets (%s).", where))
}
