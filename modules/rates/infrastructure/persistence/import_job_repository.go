package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/freightdesk/freightdesk/modules/rates/domain/entities/importjob"
	"github.com/freightdesk/freightdesk/pkg/composables"
	"github.com/freightdesk/freightdesk/pkg/repo"
)

const importJobColumns = `
	id,
	partner_id,
	filename,
	file_type,
	status,
	total_rows,
	success_count,
	error_count,
	errors,
	created_at,
	completed_at`

type ImportJobRepository struct{}

func NewImportJobRepository() importjob.Repository {
	return &ImportJobRepository{}
}

func (r *ImportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*importjob.ImportJob, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`, id)
	job, err := scanImportJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, importjob.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *ImportJobRepository) List(ctx context.Context, params *importjob.FindParams) ([]*importjob.ImportJob, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = &importjob.FindParams{}
	}

	q := `SELECT ` + importJobColumns + ` FROM import_jobs`
	var args []any
	if params.PartnerID != nil {
		q += ` WHERE partner_id = $1`
		args = append(args, *params.PartnerID)
	}
	q += ` ORDER BY created_at DESC ` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list import jobs")
	}
	defer rows.Close()

	var out []*importjob.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *ImportJobRepository) Create(ctx context.Context, job *importjob.ImportJob) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Status == "" {
		job.Status = importjob.StatusPending
	}

	rowErrors, err := marshalRowErrors(job.Errors)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO import_jobs (
			id, partner_id, filename, file_type, status,
			total_rows, success_count, error_count, errors,
			created_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10,$11)
		`,
		job.ID,
		job.PartnerID,
		job.Filename,
		job.FileType,
		string(job.Status),
		job.TotalRows,
		job.SuccessCount,
		job.ErrorCount,
		rowErrors,
		job.CreatedAt,
		job.CompletedAt,
	)
	return errors.Wrap(err, "failed to insert import job")
}

func (r *ImportJobRepository) Update(ctx context.Context, job *importjob.ImportJob) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	rowErrors, err := marshalRowErrors(job.Errors)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE import_jobs SET
			status = $2,
			total_rows = $3,
			success_count = $4,
			error_count = $5,
			errors = $6::jsonb,
			completed_at = $7
		WHERE id = $1
		`,
		job.ID,
		string(job.Status),
		job.TotalRows,
		job.SuccessCount,
		job.ErrorCount,
		rowErrors,
		job.CompletedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update import job")
	}
	if tag.RowsAffected() == 0 {
		return importjob.ErrNotFound
	}
	return nil
}

func marshalRowErrors(rowErrors []importjob.RowError) ([]byte, error) {
	if len(rowErrors) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal import errors")
	}
	return data, nil
}

func scanImportJob(row pgx.Row) (*importjob.ImportJob, error) {
	var job importjob.ImportJob
	var status string
	var rowErrors []byte

	err := row.Scan(
		&job.ID,
		&job.PartnerID,
		&job.Filename,
		&job.FileType,
		&status,
		&job.TotalRows,
		&job.SuccessCount,
		&job.ErrorCount,
		&rowErrors,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = importjob.Status(status)
	if len(rowErrors) > 0 {
		if err := json.Unmarshal(rowErrors, &job.Errors); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal import errors")
		}
	}
	return &job, nil
}
