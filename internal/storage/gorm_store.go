package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore implements the domain repositories on Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database. With autoMigrate set, every table the
// service touches is created or updated; in production the users, jobs and
// history tables belong to other services and migration stays off.
func NewGormStore(dsn string, autoMigrate bool) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if autoMigrate {
		if err := db.AutoMigrate(&UserModel{}, &SubmissionModel{}, &DocumentModel{}, &JobModel{}, &HistoryModel{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return &GormStore{db: db}, nil
}

func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &domain.Account{UserID: model.ID, Credits: model.Credits, IsAdmin: model.IsAdmin}, nil
}

// CreateSubmissions inserts the batch with its documents and deducts charge
// from the user in a single transaction.
func (s *GormStore) CreateSubmissions(ctx context.Context, userID string, submissions []domain.Submission, charge decimal.Decimal) error {
	models := make([]SubmissionModel, 0, len(submissions))
	for _, sub := range submissions {
		models = append(models, submissionToModel(sub))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("insert submissions: %w", err)
		}
		res := tx.Model(&UserModel{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits - ?", charge))
		if res.Error != nil {
			return fmt.Errorf("charge credits: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
}

func (s *GormStore) ListSubmissions(ctx context.Context, userID string, limit, offset int) ([]domain.Submission, int, error) {
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&SubmissionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []SubmissionModel
	if err := db.Preload("Documents").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	subs := make([]domain.Submission, 0, len(models))
	for _, m := range models {
		subs = append(subs, submissionFromModel(m))
	}
	return subs, int(total), nil
}

func (s *GormStore) GetSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	var model SubmissionModel
	err := s.db.WithContext(ctx).
		Preload("Documents").
		Where("id = ? AND user_id = ?", submissionID, userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, err
	}
	sub := submissionFromModel(model)
	return &sub, nil
}

func (s *GormStore) DeleteSubmission(ctx context.Context, submissionID, userID string) (*domain.Submission, error) {
	var deleted *domain.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model SubmissionModel
		if err := tx.Preload("Documents").
			Where("id = ? AND user_id = ?", submissionID, userID).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSubmissionNotFound
			}
			return err
		}
		if err := tx.Where("submission_id = ?", submissionID).Delete(&DocumentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&SubmissionModel{}, "id = ?", submissionID).Error; err != nil {
			return err
		}
		sub := submissionFromModel(model)
		deleted = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *GormStore) GetDocument(ctx context.Context, documentID string) (*domain.SubmissionDocument, error) {
	var model DocumentModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	doc := documentFromModel(model)
	return &doc, nil
}

func (s *GormStore) ListCompletedJobs(ctx context.Context, offset, limit int) ([]domain.JobRecord, error) {
	var models []JobModel
	err := s.db.WithContext(ctx).
		Where("status = ? AND completed_at IS NOT NULL", string(domain.JobStatusCompleted)).
		Order("completed_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.JobRecord, 0, len(models))
	for _, m := range models {
		jobs = append(jobs, jobFromModel(m))
	}
	return jobs, nil
}

func (s *GormStore) HasHistoryEntry(ctx context.Context, userID, serviceID, fileName string, from, to time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&HistoryModel{}).
		Where("user_id = ? AND service_id = ? AND file_name = ?", userID, serviceID, fileName).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) CreateHistoryEntry(ctx context.Context, entry *domain.HistoryEntry) error {
	model := historyToModel(*entry)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}
