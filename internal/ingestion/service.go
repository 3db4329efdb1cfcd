package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/graindesk/grainbroker/internal/domain"
	"github.com/graindesk/grainbroker/internal/repository"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Service imports bulk order files into the order store.
type Service struct {
	repo repository.OrderRepository
	log  *logrus.Logger
}

// NewService creates a new import service.
func NewService(repo repository.OrderRepository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Request describes the import input.
type Request struct {
	FileName string
	Data     io.Reader
}

// Import streams the uploaded file row by row, validates each row, and
// commits every valid order in a single bulk insert. Malformed rows become
// diagnostics in the result and never block the valid rows found in the same
// batch; only a rejected header or a failed bulk insert aborts the call, and
// neither leaves a partial commit behind.
func (s *Service) Import(ctx context.Context, req Request) (domain.ImportResult, error) {
	result := domain.ImportResult{Failures: []domain.ImportFailure{}}

	if req.Data == nil {
		return result, errors.New("data reader is required")
	}

	rows, err := openRows(req.FileName, req.Data)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	header, err := rows.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, ErrNoHeader
		}
		return result, fmt.Errorf("failed to read header row: %w", err)
	}

	headers, err := checkHeader(header)
	if err != nil {
		return result, err
	}

	var valid []domain.Order
	rowNum := 1 // header row

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read row %d: %w", rowNum+1, err)
		}
		rowNum++

		row := rowValues(headers, record)
		order, reasons := parseRow(row)
		if len(reasons) > 0 {
			failure := domain.ImportFailure{
				Row:    rowNum,
				Reason: strings.Join(reasons, "; "),
				Raw:    rawFields(row),
			}
			result.Failures = append(result.Failures, failure)
			s.log.WithFields(logrus.Fields{
				"file":   req.FileName,
				"row":    rowNum,
				"reason": failure.Reason,
			}).Debug("rejected import row")
			continue
		}
		valid = append(valid, order)
	}

	if len(valid) > 0 {
		inserted, err := s.repo.BulkInsert(ctx, valid)
		if err != nil {
			return domain.ImportResult{Failures: []domain.ImportFailure{}}, fmt.Errorf("failed to commit orders: %w", err)
		}
		result.Imported = inserted
	}
	result.Failed = len(result.Failures)

	s.log.WithFields(logrus.Fields{
		"file":     req.FileName,
		"imported": result.Imported,
		"failed":   result.Failed,
	}).Info("import completed")

	return result, nil
}

// rowSource yields one positional row at a time and reports io.EOF when the
// stream is exhausted.
type rowSource interface {
	Read() ([]string, error)
	Close() error
}

func openRows(fileName string, data io.Reader) (rowSource, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv", "":
		return newCSVRows(data)
	case ".xlsx":
		return newExcelRows(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

type csvRows struct {
	reader *csv.Reader
}

func newCSVRows(data io.Reader) (*csvRows, error) {
	buffered := bufio.NewReader(data)
	if prefix, err := buffered.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = buffered.Discard(len(byteOrderMark))
	}

	reader := csv.NewReader(buffered)
	reader.Comma = detectDelimiter(buffered)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return &csvRows{reader: reader}, nil
}

func (c *csvRows) Read() ([]string, error) { return c.reader.Read() }

func (c *csvRows) Close() error { return nil }

// detectDelimiter sniffs the first line for the most frequent candidate
// separator. Comma wins ties.
func detectDelimiter(reader *bufio.Reader) rune {
	peeked, _ := reader.Peek(4096)
	if idx := bytes.IndexByte(peeked, '\n'); idx >= 0 {
		peeked = peeked[:idx]
	}

	best := ','
	bestCount := bytes.Count(peeked, []byte{','})
	for _, candidate := range []byte{';', '\t', '|'} {
		if count := bytes.Count(peeked, []byte{candidate}); count > bestCount {
			best = rune(candidate)
			bestCount = count
		}
	}
	return best
}

type excelRows struct {
	file *excelize.File
	rows *excelize.Rows
}

func newExcelRows(data io.Reader) (*excelRows, error) {
	file, err := excelize.OpenReader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := file.Rows(sheets[0])
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return &excelRows{file: file, rows: rows}, nil
}

func (e *excelRows) Read() ([]string, error) {
	if !e.rows.Next() {
		if err := e.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return e.rows.Columns()
}

func (e *excelRows) Close() error {
	_ = e.rows.Close()
	return e.file.Close()
}
