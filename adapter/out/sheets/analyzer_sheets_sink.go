// Package sheets writes analysis results to Google Sheets.
package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ticket_analyzer/core/port/out"
	"ticket_analyzer/core/service/report"
	"ticket_analyzer/pkg/apperr"
)

// Opener creates one spreadsheet per analysis run and optionally shares it.
type Opener struct {
	sheets     *sheets.Service
	drive      *drive.Service
	shareEmail string
	log        zerolog.Logger
}

// NewOpener authenticates with service-account credentials and builds the Sheets and Drive clients.
func NewOpener(ctx context.Context, credentialsJSON []byte, scopes []string, shareEmail string, log zerolog.Logger) (*Opener, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, scopes...)
	if err != nil {
		return nil, apperr.ConfigError("invalid google credentials").WithDetail("error", err.Error())
	}
	return NewOpenerWithOptions(ctx, shareEmail, log, option.WithCredentials(creds))
}

// NewOpenerWithOptions builds the clients from explicit client options.
func NewOpenerWithOptions(ctx context.Context, shareEmail string, log zerolog.Logger, opts ...option.ClientOption) (*Opener, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Opener{
		sheets:     sheetsSvc,
		drive:      driveSvc,
		shareEmail: shareEmail,
		log:        log.With().Str("component", "sheets").Logger(),
	}, nil
}

// Open creates a spreadsheet titled title and grants the share address writer access.
func (o *Opener) Open(ctx context.Context, title string) (out.Sink, error) {
	created, err := o.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, apperr.ExternalError("sheets", fmt.Errorf("create spreadsheet: %w", err))
	}

	if o.shareEmail != "" {
		_, err := o.drive.Permissions.Create(created.SpreadsheetId, &drive.Permission{
			Type:         "user",
			Role:         "writer",
			EmailAddress: o.shareEmail,
		}).Context(ctx).Do()
		if err != nil {
			return nil, apperr.ExternalError("drive", fmt.Errorf("share spreadsheet: %w", err))
		}
	}

	o.log.Info().Str("title", title).Str("url", created.SpreadsheetUrl).Msg("spreadsheet created")
	return &Sink{
		values: o.sheets.Spreadsheets.Values,
		id:     created.SpreadsheetId,
		url:    created.SpreadsheetUrl,
	}, nil
}

// Sink writes the ticket block at A1 and the score block to its right, on the first sheet.
type Sink struct {
	values *sheets.SpreadsheetsValuesService
	id     string
	url    string
}

func (s *Sink) WriteTicketRows(ctx context.Context, rows [][]any) error {
	return s.write(ctx, "A1", rows)
}

func (s *Sink) WriteScoreRows(ctx context.Context, rows [][]any) error {
	return s.write(ctx, ScoreAnchor(), rows)
}

func (s *Sink) URL() string { return s.url }

func (s *Sink) write(ctx context.Context, anchor string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.values.Update(s.id, anchor, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return apperr.ExternalError("sheets", fmt.Errorf("update %s: %w", anchor, err))
	}
	return nil
}

// ScoreAnchor is the top-left cell of the score block: the column right after the ticket block.
func ScoreAnchor() string {
	return ColumnLetter(len(report.TicketHeaders)+1) + "1"
}

// ColumnLetter converts a 1-based column index to its A1 letters (1 -> A, 27 -> AA).
func ColumnLetter(col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}
