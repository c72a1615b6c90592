// Package extract turns heterogeneous statement files into flat records.
package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"reconmail/internal"
	"reconmail/internal/util"
)

var keyPattern = regexp.MustCompile(`(\w+)\s*:`)

// Records extracts an ordered sequence of flat records from a statement
// file. Unsupported formats and malformed inputs yield an empty list, not
// an error: per-file problems are recovered at this boundary.
func Records(path string) []internal.Record {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		records, err := parseXLSX(content)
		if err != nil {
			return nil
		}
		return records
	case ".csv":
		return parseCSV(content)
	case ".json":
		return parseJSON(content)
	case ".txt":
		return parseKeyValueLines(string(content))
	case ".pdf":
		records, err := parsePDF(content)
		if err != nil {
			return nil
		}
		return records
	case ".html", ".htm":
		return parseHTMLTable(content)
	default:
		return nil
	}
}

func parseXLSX(content []byte) ([]internal.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.Record{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}

		headers := normalizeCells(rows[0])
		for _, row := range rows[1:] {
			cells := normalizeCells(row)
			record := rowToRecord(headers, cells)
			if len(record) > 0 {
				out = append(out, record)
			}
		}
	}
	return out, nil
}

func parseCSV(content []byte) []internal.Record {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil
	}

	headers := normalizeCells(rows[0])
	out := make([]internal.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := rowToRecord(headers, normalizeCells(row))
		if len(record) > 0 {
			out = append(out, record)
		}
	}
	return out
}

func parseJSON(content []byte) []internal.Record {
	var list []map[string]any
	if err := json.Unmarshal(content, &list); err == nil {
		out := make([]internal.Record, 0, len(list))
		for _, item := range list {
			record := anyMapToRecord(item)
			if len(record) > 0 {
				out = append(out, record)
			}
		}
		return out
	}

	var single map[string]any
	if err := json.Unmarshal(content, &single); err == nil {
		record := anyMapToRecord(single)
		if len(record) > 0 {
			return []internal.Record{record}
		}
	}
	return nil
}

func parseKeyValueLines(text string) []internal.Record {
	out := []internal.Record{}
	for _, line := range splitLines(text) {
		keys := keyPattern.FindAllStringSubmatchIndex(line, -1)
		if len(keys) == 0 {
			continue
		}
		record := internal.Record{}
		for i, loc := range keys {
			key := strings.ToLower(line[loc[2]:loc[3]])
			end := len(line)
			if i+1 < len(keys) {
				end = keys[i+1][0]
			}
			value := strings.TrimSpace(line[loc[1]:end])
			if key != "" && value != "" {
				record[key] = value
			}
		}
		if len(record) > 0 {
			out = append(out, record)
		}
	}
	return out
}

func parsePDF(content []byte) ([]internal.Record, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	if records := parseKeyValueLines(text.String()); len(records) > 0 {
		return records, nil
	}

	// No key:value structure; fall back to the strongest amount/date signals.
	amounts := util.FindMoney(text.String())
	dates := util.FindISODates(text.String())
	record := internal.Record{"merchant": "Unknown", "amount": "0", "date": "Unknown"}
	if len(amounts) > 0 {
		record["amount"] = amounts[len(amounts)-1]
	}
	if len(dates) > 0 {
		record["date"] = dates[0]
	}
	return []internal.Record{record}, nil
}

func parseHTMLTable(content []byte) []internal.Record {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil
	}

	out := []internal.Record{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			record := rowToRecord(headers, cells)
			if len(record) > 0 {
				out = append(out, record)
			}
		})
	})
	return out
}

func rowToRecord(headers, cells []string) internal.Record {
	record := internal.Record{}
	empty := true
	for i, cell := range cells {
		if i >= len(headers) || strings.TrimSpace(headers[i]) == "" {
			continue
		}
		record[headers[i]] = cell
		if strings.TrimSpace(cell) != "" {
			empty = false
		}
	}
	if empty {
		return nil
	}
	return record
}

func anyMapToRecord(m map[string]any) internal.Record {
	record := internal.Record{}
	for k, v := range m {
		switch t := v.(type) {
		case string:
			record[k] = t
		case float64:
			record[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			if t {
				record[k] = "true"
			} else {
				record[k] = "false"
			}
		case nil:
			record[k] = ""
		default:
			blob, _ := json.Marshal(t)
			record[k] = string(blob)
		}
	}
	return record
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
