package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/freightdesk/freightdesk/modules/rates/domain/aggregates/rate"
	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/importjob"
	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/partner"
	"github.com/freightdesk/freightdesk/modules/rates/mapping"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/eventbus"
	"github.com/freightdesk/freightdesk/pkg/serrors"
	"github.com/freightdesk/freightdesk/pkg/tabular"
)

// ImportStartedEvent is published when a job moves to PROCESSING.
type ImportStartedEvent struct {
	Job *importjob.ImportJob
}

// ImportFinishedEvent is published once a job reaches a terminal status.
type ImportFinishedEvent struct {
	Job *importjob.ImportJob
}

var allowedUploadExtensions = map[string]string{
	".xlsx": "xlsx",
	".xls":  "xls",
	".csv":  "csv",
}

var ErrUnsupportedFileType = errors.New("unsupported file type")

// ImportService owns the rate ingestion pipeline: upload intake, then the
// per-job sweep reader → mapper → normalizer → validator → store. One job
// fully replaces one partner's rate set.
type ImportService struct {
	jobs     importjob.Repository
	rates    rate.Repository
	partners partner.Repository

	layouts   *mapping.Config
	publisher eventbus.EventBus
	log       *logrus.Logger

	uploadsPath string

	// Seams for tests; production wiring uses the package defaults.
	inTx      func(context.Context, func(context.Context) error) error
	readerFor func(path string) (tabular.Reader, error)
}

func NewImportService(
	jobs importjob.Repository,
	rates rate.Repository,
	partners partner.Repository,
	layouts *mapping.Config,
	publisher eventbus.EventBus,
	log *logrus.Logger,
	uploadsPath string,
) *ImportService {
	if layouts == nil {
		layouts = &mapping.Config{}
	}
	return &ImportService{
		jobs:        jobs,
		rates:       rates,
		partners:    partners,
		layouts:     layouts,
		publisher:   publisher,
		log:         log,
		uploadsPath: uploadsPath,
		inTx:        composables.InTx,
		readerFor:   tabular.ForFile,
	}
}

// Upload stores the uploaded file and creates the job in PENDING. The file
// is renamed under the job ID so concurrent uploads of the same filename
// cannot collide.
func (s *ImportService) Upload(ctx context.Context, partnerID uuid.UUID, filename string, src io.Reader) (*importjob.ImportJob, error) {
	if _, err := s.partners.GetByID(ctx, partnerID); err != nil {
		return nil, err
	}

	name := sanitizeFilename(filename)
	ext := strings.ToLower(filepath.Ext(name))
	fileType, ok := allowedUploadExtensions[ext]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFileType, "%q", ext)
	}

	job := &importjob.ImportJob{
		ID:        uuid.New(),
		PartnerID: partnerID,
		Filename:  name,
		FileType:  fileType,
		Status:    importjob.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := os.MkdirAll(s.uploadsPath, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create uploads directory")
	}
	dst, err := os.Create(s.storedPath(job))
	if err != nil {
		return nil, errors.Wrap(err, "failed to store uploaded file")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return nil, errors.Wrap(err, "failed to write uploaded file")
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *ImportService) GetJob(ctx context.Context, id uuid.UUID) (*importjob.ImportJob, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *ImportService) ListJobs(ctx context.Context, params *importjob.FindParams) ([]*importjob.ImportJob, error) {
	return s.jobs.List(ctx, params)
}

// Process runs one import job to a terminal status. The partner's existing
// rates are replaced atomically with the new file's contents; row-level
// failures are recorded on the job and never abort the sweep. The job ends
// FAILED only when nothing succeeded and at least one error occurred, or
// when the run itself fails.
func (s *ImportService) Process(ctx context.Context, jobID uuid.UUID) (*importjob.ImportJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.Status = importjob.StatusProcessing
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.Publish(&ImportStartedEvent{Job: job})
	}

	runErr := s.run(ctx, job)

	now := time.Now()
	job.CompletedAt = &now
	if runErr != nil {
		job.Status = importjob.StatusFailed
		job.Errors = append(job.Errors, importjob.RowError{Message: runErr.Error()})
		job.ErrorCount++
	} else if job.SuccessCount == 0 && job.ErrorCount > 0 {
		job.Status = importjob.StatusFailed
	} else {
		job.Status = importjob.StatusCompleted
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.Publish(&ImportFinishedEvent{Job: job})
	}
	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"job_id":  job.ID,
			"status":  job.Status,
			"rows":    job.TotalRows,
			"success": job.SuccessCount,
			"errors":  job.ErrorCount,
		}).Info("import finished")
	}
	return job, nil
}

// run does the actual sweep inside one transaction, so the delete of the old
// rate set and the insert of the new one commit or roll back together. A
// panic anywhere in the sweep surfaces as the run error.
func (s *ImportService) run(ctx context.Context, job *importjob.ImportJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("import panicked: %v", r)
		}
	}()

	p, err := s.partners.GetByID(ctx, job.PartnerID)
	if err != nil {
		return err
	}

	reader, err := s.readerFor(s.storedPath(job))
	if err != nil {
		return err
	}

	layout := s.layouts.Partner(p.Code)
	mapper := mapping.NewMapper(s.layouts)

	return s.inTx(ctx, func(txCtx context.Context) error {
		deleted, err := s.rates.DeleteByPartner(txCtx, job.PartnerID)
		if err != nil {
			return err
		}
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"job_id":  job.ID,
				"partner": p.Code,
				"deleted": deleted,
			}).Info("replaced partner rate set")
		}

		for _, sheet := range layout.SheetConfigs() {
			rows, err := reader.Read(s.storedPath(job), tabular.Options{
				Sheet:     sheet.SheetName,
				HeaderRow: sheet.HeaderRow,
			})
			if err != nil {
				return err
			}

			carry := &mapping.CarryState{}
			sheetCopy := sheet
			for i, row := range rows {
				job.TotalRows++
				s.processRow(txCtx, job, p, mapper, &sheetCopy, carry, row, i+1)
			}
		}
		return nil
	})
}

// processRow maps one raw row to candidates and persists the valid ones. Any
// fault while handling a candidate is recorded on the job instead of
// propagating.
func (s *ImportService) processRow(
	ctx context.Context,
	job *importjob.ImportJob,
	p *partner.Partner,
	mapper *mapping.Mapper,
	sheet *mapping.SheetConfig,
	carry *mapping.CarryState,
	row tabular.Row,
	rowNum int,
) {
	for _, candidate := range mapper.MapRow(row, sheet, carry) {
		s.processCandidate(ctx, job, p, sheet, candidate, row, rowNum)
	}
}

func (s *ImportService) processCandidate(
	ctx context.Context,
	job *importjob.ImportJob,
	p *partner.Partner,
	sheet *mapping.SheetConfig,
	candidate mapping.Candidate,
	raw tabular.Row,
	rowNum int,
) {
	defer func() {
		if r := recover(); r != nil {
			job.ErrorCount++
			job.Errors = append(job.Errors, importjob.RowError{
				Sheet:   sheet.Name,
				Row:     rowNum,
				Message: fmt.Sprintf("unexpected failure: %v", r),
				Raw:     serrors.SanitizeMap(raw),
			})
		}
	}()

	normalized := mapping.Normalize(candidate)
	validated, fieldErrs := mapping.ValidateRow(normalized, p.Currency)
	if len(fieldErrs) > 0 {
		job.ErrorCount++
		job.Errors = append(job.Errors, importjob.RowError{
			Sheet:  sheet.Name,
			Row:    rowNum,
			Errors: fieldErrs,
			Raw:    serrors.SanitizeMap(raw),
		})
		return
	}

	rt := &rate.Rate{
		ID:               uuid.New(),
		PartnerID:        job.PartnerID,
		ImportJobID:      &job.ID,
		TransportMode:    rate.TransportMode(validated.TransportMode),
		OriginPostalCode: validated.OriginPostalCode,
		OriginCity:       validated.OriginCity,
		OriginCountry:    validated.OriginCountry,
		DestPostalCode:   validated.DestPostalCode,
		DestCity:         validated.DestCity,
		DestCountry:      validated.DestCountry,
		WeightMin:        validated.WeightMin,
		WeightMax:        validated.WeightMax,
		VolumeMin:        validated.VolumeMin,
		VolumeMax:        validated.VolumeMax,
		Cost:             decimal.NewFromFloat(validated.Cost).Round(2),
		PricingType:      validated.PricingType,
		Currency:         validated.Currency,
		DeliveryTime:     validated.DeliveryTime,
		ValidFrom:        time.Now(),
		IsActive:         true,
	}
	if err := s.rates.Create(ctx, rt); err != nil {
		job.ErrorCount++
		job.Errors = append(job.Errors, importjob.RowError{
			Sheet:   sheet.Name,
			Row:     rowNum,
			Message: err.Error(),
			Raw:     serrors.SanitizeMap(raw),
		})
		return
	}
	job.SuccessCount++
}

func (s *ImportService) storedPath(job *importjob.ImportJob) string {
	return filepath.Join(s.uploadsPath, job.ID.String()+"_"+job.Filename)
}

// sanitizeFilename strips any path components from a client-supplied
// filename.
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}
