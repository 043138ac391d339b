package repository

import (
	"context"
	"fmt"

	"github.com/dbrag/dbrag-server/internal/db/models"
	"github.com/uptrace/bun"
)

type IQueryRecordRepository interface {
	Repository[models.QueryRecord]
	WithTx(tx *bun.Tx) IQueryRecordRepository
	WithDB(db *bun.DB) IQueryRecordRepository
	ListRecent(ctx context.Context, limit int) ([]models.QueryRecord, error)
}

type QueryRecordRepository struct {
	db bun.IDB
}

func NewQueryRecordRepository(db *bun.DB) IQueryRecordRepository {
	return &QueryRecordRepository{db: db}
}

func (r *QueryRecordRepository) Create(ctx context.Context, record *models.QueryRecord) (*models.QueryRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("query record model is nil")
	}

	if err := r.db.NewInsert().Model(record).Returning("*").Scan(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *QueryRecordRepository) GetByID(ctx context.Context, id string) (*models.QueryRecord, error) {
	var record models.QueryRecord
	if err := r.db.NewSelect().Model(&record).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *QueryRecordRepository) UpdateByID(ctx context.Context, id string, record *models.QueryRecord) (*models.QueryRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("query record model is nil")
	}

	if err := r.db.NewUpdate().Model(record).Where("id = ?", id).Returning("*").Scan(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *QueryRecordRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model(&models.QueryRecord{}).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *QueryRecordRepository) ListRecent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	var records []models.QueryRecord
	if err := r.db.NewSelect().Model(&records).Order("created_at DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *QueryRecordRepository) WithTx(tx *bun.Tx) IQueryRecordRepository {
	return &QueryRecordRepository{db: tx}
}

func (r *QueryRecordRepository) WithDB(db *bun.DB) IQueryRecordRepository {
	return &QueryRecordRepository{db: db}
}
