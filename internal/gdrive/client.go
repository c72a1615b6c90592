package gdrive

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"reconmail/internal/config"
)

const defaultRequestsPerSecond = 5

// Service wraps the Drive and Sheets APIs behind the handful of
// operations the reconciliation pipeline needs: content-addressed blob
// uploads and find-or-create spreadsheets with full-range row access.
type Service struct {
	drive   *drive.Service
	sheets  *sheets.Service
	limiter *RateLimiter
}

func NewService(ctx context.Context, cfg config.Config) (*Service, error) {
	if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{drive.DriveScope, sheets.SpreadsheetsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})

	driveSvc, err := drive.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Service{
		drive:   driveSvc,
		sheets:  sheetsSvc,
		limiter: NewRateLimiter(defaultRequestsPerSecond),
	}, nil
}

// BlobExists reports whether a non-trashed file with the given name
// already lives in the folder, returning its id when found.
func (s *Service) BlobExists(ctx context.Context, name, folderID string) (string, bool, error) {
	s.limiter.WaitTurn()
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(name), folderID)
	resp, err := s.drive.Files.List().Q(query).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", false, fmt.Errorf("list files %q: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", false, nil
	}
	return resp.Files[0].Id, true, nil
}

// UploadBlob stores content under name in the folder and returns the new
// file id. Callers are expected to check BlobExists first; duplicates by
// name are otherwise allowed by Drive.
func (s *Service) UploadBlob(ctx context.Context, content []byte, name, folderID string) (string, error) {
	s.limiter.WaitTurn()
	meta := &drive.File{Name: name, Parents: []string{folderID}}
	file, err := s.drive.Files.Create(meta).Media(strings.NewReader(string(content))).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", name, err)
	}
	return file.Id, nil
}

// BlobLink renders the shareable view URL for an uploaded file.
func BlobLink(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID)
}

// EnsureSpreadsheet finds the spreadsheet with the given name in the
// folder, creating and filing it when absent.
func (s *Service) EnsureSpreadsheet(ctx context.Context, name, folderID string) (string, error) {
	s.limiter.WaitTurn()
	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", escapeQuery(name), folderID)
	resp, err := s.drive.Files.List().Q(query).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", name, err)
	}
	if len(resp.Files) > 0 {
		return resp.Files[0].Id, nil
	}

	s.limiter.WaitTurn()
	created, err := s.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", name, err)
	}

	// New spreadsheets land in the drive root; move them under the folder.
	s.limiter.WaitTurn()
	_, err = s.drive.Files.Update(created.SpreadsheetId, nil).AddParents(folderID).RemoveParents("root").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("file spreadsheet %q under folder: %w", name, err)
	}

	return created.SpreadsheetId, nil
}

// ReadRows fetches the whole first sheet, returning the header row and
// each data row mapped by it. An empty sheet yields neither.
func (s *Service) ReadRows(ctx context.Context, spreadsheetID string) ([]string, []map[string]string, error) {
	s.limiter.WaitTurn()
	resp, err := s.sheets.Spreadsheets.Values.Get(spreadsheetID, "A1:ZZ").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows %s: %w", spreadsheetID, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	header := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		header = append(header, fmt.Sprint(cell))
	}
	if len(resp.Values) == 1 {
		return header, nil, nil
	}

	rows := make([]map[string]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := map[string]string{}
		for i, cell := range raw {
			if i >= len(header) {
				break
			}
			row[header[i]] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// WriteRows replaces the whole first sheet with the header plus the
// given rows, cells ordered by the header.
func (s *Service) WriteRows(ctx context.Context, spreadsheetID string, header []string, rows []map[string]string) error {
	values := make([][]interface{}, 0, len(rows)+1)
	headerCells := make([]interface{}, 0, len(header))
	for _, col := range header {
		headerCells = append(headerCells, col)
	}
	values = append(values, headerCells)

	for _, row := range rows {
		cells := make([]interface{}, 0, len(header))
		for _, col := range header {
			cells = append(cells, row[col])
		}
		values = append(values, cells)
	}

	s.limiter.WaitTurn()
	_, err := s.sheets.Spreadsheets.Values.Clear(spreadsheetID, "A1:ZZ", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear rows %s: %w", spreadsheetID, err)
	}

	s.limiter.WaitTurn()
	_, err = s.sheets.Spreadsheets.Values.Update(spreadsheetID, "A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write rows %s: %w", spreadsheetID, err)
	}
	return nil
}

func escapeQuery(value string) string {
	return strings.ReplaceAll(value, "'", "\\'")
}
