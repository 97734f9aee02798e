package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-diag/internal/application"
	domain "github.com/bryanwahyu/automaton-diag/internal/domain/imports"
	"github.com/bryanwahyu/automaton-diag/internal/domain/records"
	"github.com/bryanwahyu/automaton-diag/internal/tabular"
)

var (
	// ErrInvalidFile is returned when an upload cannot be read as a sheet.
	ErrInvalidFile = errors.New("invalid file")
	// ErrEmptyFile is returned when an upload has a header but no data rows.
	ErrEmptyFile = errors.New("the file contains no data rows")
)

// Upload is one uploaded file.
type Upload struct {
	Operator string
	Filename string
	Data     []byte
}

// Service implements bulk import for one resource.
type Service[R records.Keyed] struct {
	Resource string
	Repo     records.Repository[R]
	Mapper   tabular.Mapper[R]
	Validate *validator.Validate
	// Archive is optional; when nil uploads are not kept.
	Archive domain.ArchiveStore
	// History is optional; when set every import that stored rows is logged.
	History domain.History
	Clock   application.Clock
	Logger  *slog.Logger
}

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Import parses the upload, validates every row, drops duplicates and inserts
// the remaining rows in one transaction.
func (s *Service[R]) Import(ctx context.Context, up Upload) (domain.Result, error) {
	format, err := tabular.FormatFromName(up.Filename)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	decoded, err := tabular.Decode[R](bytes.NewReader(up.Data), format, s.Mapper)
	if err != nil {
		return domain.Result{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if len(decoded) == 0 {
		return domain.Result{}, fmt.Errorf("%w: %w", ErrInvalidFile, ErrEmptyFile)
	}

	res := domain.Result{TotalRows: len(decoded)}
	seen := make(map[string]int, len(decoded))
	var (
		accepted []R
		lines    []int
	)
	for _, d := range decoded {
		if d.Err != nil {
			res.Errors = append(res.Errors, conversionError(d.Line, d.Err))
			continue
		}
		if err := s.Validate.Struct(d.Value); err != nil {
			res.Errors = append(res.Errors, validationErrors(d.Line, err)...)
			continue
		}
		key := d.Value.Key()
		if _, dup := seen[key]; dup {
			res.Duplicates.InFile++
			res.Duplicates.Details = append(res.Duplicates.Details, domain.DuplicateDetail{Row: d.Line, Key: key, Source: domain.SourceFile})
			continue
		}
		seen[key] = d.Line
		accepted = append(accepted, d.Value)
		lines = append(lines, d.Line)
	}

	if len(accepted) > 0 {
		keys := make([]string, len(accepted))
		for i, row := range accepted {
			keys[i] = row.Key()
		}
		existing, err := s.Repo.ExistingKeys(ctx, keys)
		if err != nil {
			return domain.Result{}, fmt.Errorf("checking existing %s: %w", s.Resource, err)
		}
		fresh := accepted[:0]
		for i, row := range accepted {
			if existing[row.Key()] {
				res.Duplicates.InDatabase++
				res.Duplicates.Details = append(res.Duplicates.Details, domain.DuplicateDetail{Row: lines[i], Key: row.Key(), Source: domain.SourceDatabase})
				continue
			}
			fresh = append(fresh, row)
		}
		accepted = fresh
	}

	if len(accepted) > 0 {
		n, err := s.Repo.InsertBatch(ctx, accepted)
		if err != nil {
			return domain.Result{}, fmt.Errorf("inserting %s: %w", s.Resource, err)
		}
		res.ImportedRows = n
		res.BatchID = uuid.NewString()
		res.ArchiveURL = s.archive(ctx, up, format, res.BatchID)
	}

	res.Success = res.ImportedRows > 0 || len(res.Errors) == 0
	res.Message = summary(res)
	if res.BatchID != "" {
		s.record(ctx, up, res)
	}
	s.logger().Info("import finished",
		"resource", s.Resource,
		"operator", up.Operator,
		"file", up.Filename,
		"total", res.TotalRows,
		"imported", res.ImportedRows,
		"duplicates", res.Duplicates.InFile+res.Duplicates.InDatabase,
		"invalid_rows", len(res.Errors),
		"batch_id", res.BatchID,
	)
	return res, nil
}

// archive stores the original upload. Failures are logged only: the rows are
// already committed.
func (s *Service[R]) archive(ctx context.Context, up Upload, format tabular.Format, batchID string) string {
	if s.Archive == nil {
		return ""
	}
	operator := up.Operator
	if operator == "" {
		operator = domain.Anonymous
	}
	key := fmt.Sprintf("%s/%s/%s%s", operator, s.Resource, batchID, format.Ext())
	url, err := s.Archive.Archive(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), format.ContentType())
	if err != nil {
		s.logger().Warn("archiving upload failed", "key", key, "error", err)
		return ""
	}
	return url
}

// record appends the batch to the history. Like archiving it cannot fail the
// import.
func (s *Service[R]) record(ctx context.Context, up Upload, res domain.Result) {
	if s.History == nil {
		return
	}
	batch := domain.NewBatch(s.Resource, up.Operator, up.Filename, res, s.now())
	if _, err := s.History.InsertBatch(ctx, []domain.Batch{batch}); err != nil {
		s.logger().Warn("recording import batch failed", "batch_id", batch.ID, "error", err)
	}
}

func (s *Service[R]) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service[R]) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func conversionError(line int, err error) domain.RowError {
	var fe *tabular.FieldError
	if errors.As(err, &fe) {
		return domain.RowError{Row: line, Field: fe.Field, Message: fe.Message}
	}
	return domain.RowError{Row: line, Message: err.Error()}
}

func validationErrors(line int, err error) []domain.RowError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.RowError{{Row: line, Message: err.Error()}}
	}
	out := make([]domain.RowError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.RowError{Row: line, Field: fieldPath(fe), Message: describe(fe)})
	}
	return out
}

// fieldPath drops the root struct name from the namespace ("Scan.findings[0].code").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "alphanum":
		return "must contain only letters and digits"
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

func summary(r domain.Result) string {
	dups := r.Duplicates.InFile + r.Duplicates.InDatabase
	switch {
	case r.ImportedRows > 0:
		msg := fmt.Sprintf("Imported %d of %d rows.", r.ImportedRows, r.TotalRows)
		if dups > 0 {
			msg += fmt.Sprintf(" %d skipped as duplicates.", dups)
		}
		if len(r.Errors) > 0 {
			msg += fmt.Sprintf(" %d rows failed validation.", invalidRows(r.Errors))
		}
		return msg
	case len(r.Errors) == 0:
		return fmt.Sprintf("Nothing imported: all %d rows already exist.", r.TotalRows)
	default:
		return fmt.Sprintf("No rows imported: %d rows failed validation.", invalidRows(r.Errors))
	}
}

func invalidRows(errs []domain.RowError) int {
	rows := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		rows[e.Row] = struct{}{}
	}
	return len(rows)
}
