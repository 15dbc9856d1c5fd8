package reports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/userctx"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidDateRange = errors.New("from date must be before to date")
	ErrRangeTooLarge    = errors.New("date range too large")
	ErrReportNotFound   = errors.New("report not found")
)

// Options configures where report files go and how they are linked.
type Options struct {
	MaxRangeDays    int
	PresignTTL      int
	PublicBaseURL   string
	PreferPublicURL bool
}

type Service struct {
	reportsStorage  storage.ReportsStorage
	generator       *Generator
	blobStore       blob.Store
	maxRangeDays    int
	presignTTL      int
	localMode       bool // true if no S3 configured
	publicBaseURL   string
	preferPublicURL bool
}

// NewService builds the reports service. A nil blobStore keeps report files
// in the reports storage.
func NewService(reportsStorage storage.ReportsStorage, generator *Generator, blobStore blob.Store, opts Options) *Service {
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = 31
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 900
	}
	return &Service{
		reportsStorage:  reportsStorage,
		generator:       generator,
		blobStore:       blobStore,
		maxRangeDays:    opts.MaxRangeDays,
		presignTTL:      opts.PresignTTL,
		localMode:       blobStore == nil,
		publicBaseURL:   opts.PublicBaseURL,
		preferPublicURL: opts.PreferPublicURL,
	}
}

// CreateReport validates the range, renders the file and stores it.
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*Report, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	fromDate, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	toDate, err := time.Parse(dateLayout, req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if fromDate.After(toDate) {
		return nil, ErrInvalidDateRange
	}
	daysDiff := int(toDate.Sub(fromDate).Hours() / 24)
	if daysDiff > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}

	data, err := s.generator.GenerateReport(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	report := &storage.ReportMeta{
		ID:        uuid.New(),
		UserID:    userID,
		Format:    req.Format,
		FromDate:  req.From,
		ToDate:    req.To,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}

	if s.localMode {
		report.Data = data
	} else {
		objectKey := fmt.Sprintf("reports/%s/%s_%s_%s.%s",
			objectPrefix(userID),
			req.From,
			req.To,
			report.ID.String(),
			req.Format,
		)

		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentType(req.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload to S3: %w", err)
		}
		report.ObjectKey = &objectKey
	}

	if err := s.reportsStorage.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	return toReport(report), nil
}

// GetReport returns a report of the caller.
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReport(meta), nil
}

// ListReports lists the caller's reports, newest first.
func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]Report, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	metaList, err := s.reportsStorage.ListReports(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(metaList))
	for i := range metaList {
		reports[i] = *toReport(&metaList[i])
	}
	return reports, nil
}

// DeleteReport removes the metadata and, in S3 mode, the object.
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return err
	}

	if !s.localMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			log.Printf("WARN reports: failed to delete S3 object %s: %v", *meta.ObjectKey, err)
		}
	}

	if err := s.reportsStorage.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// GetReportDownloadURL returns the API download path in local mode, otherwise
// a public or presigned object URL.
func (s *Service) GetReportDownloadURL(ctx context.Context, report *Report, baseURL string) (string, error) {
	if s.localMode {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), report.ID.String()), nil
	}

	if report.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}

	if s.preferPublicURL && s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *report.ObjectKey, nil
	}

	presignedURL, err := s.blobStore.PresignGet(ctx, *report.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL, nil
}

// GetReportData returns the file bytes and content type.
func (s *Service) GetReportData(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if s.localMode {
		return meta.Data, contentType(meta.Format), nil
	}

	if meta.ObjectKey == nil {
		return nil, "", fmt.Errorf("object key is missing")
	}
	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		return nil, "", err
	}
	return data, contentType(meta.Format), nil
}

// LocalMode reports whether files are kept in the reports storage.
func (s *Service) LocalMode() bool {
	return s.localMode
}

func (s *Service) ownedReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := s.reportsStorage.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	if meta.UserID != userID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func toReport(meta *storage.ReportMeta) *Report {
	return &Report{
		ID:        meta.ID,
		UserID:    meta.UserID,
		Format:    meta.Format,
		FromDate:  meta.FromDate,
		ToDate:    meta.ToDate,
		ObjectKey: meta.ObjectKey,
		SizeBytes: meta.SizeBytes,
		Status:    meta.Status,
		Error:     meta.Error,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Data:      meta.Data,
	}
}

func contentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// objectPrefix keeps user ids path-safe in object keys.
func objectPrefix(userID string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(userID)
}

func userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}
