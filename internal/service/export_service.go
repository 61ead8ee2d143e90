package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/models"
	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/export"
)

type admissionLister interface {
	ListFinalized(ctx context.Context) ([]models.AdmissionRecord, error)
}

type exportProfileReader interface {
	FindByID(ctx context.Context, id int64) (*models.CandidateProfile, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
}

// ExportResult captures successful roster generation metadata.
type ExportResult struct {
	RelativePath string    `json:"relative_path"`
	Token        string    `json:"token"`
	Format       string    `json:"format"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExportService renders the admitted roster to CSV or PDF files.
type ExportService struct {
	admissions admissionLister
	profiles   exportProfileReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     exportSigner
	logger     *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(admissions admissionLister, profiles exportProfileReader, storage fileStorage, csv csvRenderer, pdf pdfRenderer, signer exportSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{admissions: admissions, profiles: profiles, storage: storage, csv: csv, pdf: pdf, signer: signer, logger: logger}
}

var rosterHeaders = []string{"candidate_id", "full_name", "email", "position", "department", "start_date", "sent_at"}

// Roster renders the finalized admissions in the requested format and stores
// the file with a signed download token.
func (s *ExportService) Roster(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	records, err := s.admissions.ListFinalized(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
	}

	dataset := export.Dataset{Headers: rosterHeaders}
	for _, record := range records {
		row := map[string]string{
			"candidate_id": strconv.FormatInt(record.CandidateID, 10),
			"position":     record.Position,
			"department":   record.Department,
		}
		if record.StartDate != nil {
			row["start_date"] = record.StartDate.Format("2006-01-02")
		}
		if record.SentAt != nil {
			row["sent_at"] = record.SentAt.Format(time.RFC3339)
		}
		if profile, err := s.profiles.FindByID(ctx, record.CandidateID); err == nil {
			row["full_name"] = profile.FullName
			row["email"] = profile.Email
		} else {
			s.logger.Warn("roster export missing profile", zap.Int64("candidate_id", record.CandidateID), zap.Error(err))
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	var rendered []byte
	switch format {
	case "csv":
		rendered, err = s.csv.Render(dataset)
	case "pdf":
		rendered, err = s.pdf.Render(dataset, "Admitted Candidates")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("roster-%s-%s.%s", time.Now().UTC().Format("20060102-150405"), exportID[:8], format)
	relPath, err := s.storage.Save(filename, rendered)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store roster")
	}

	result := &ExportResult{RelativePath: relPath, Format: format}
	if s.signer != nil {
		token, expiresAt, err := s.signer.Generate(exportID, relPath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign roster url")
		}
		result.Token = token
		result.ExpiresAt = expiresAt
	}
	return result, nil
}
