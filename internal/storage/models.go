package storage

import (
	"encoding/json"
	"time"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GORM models used for persistence.
type SubmissionModel struct {
	ID                   string          `gorm:"primaryKey;type:uuid"`
	UserID               string          `gorm:"not null;index"`
	RowIndex             int             `gorm:"not null"`
	ImporterID           string          `gorm:"not null"`
	DestinationCountryID string          `gorm:"column:destination_country_id"`
	BLNumber             string          `gorm:"column:bl_number;not null"`
	BLDate               string          `gorm:"column:bl_date"`
	InvoiceNumber        string          `gorm:"not null"`
	InvoiceDate          string          `gorm:"column:invoice_date"`
	InvoiceValue         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Extra                datatypes.JSON  `gorm:"type:jsonb"`
	Status               string          `gorm:"not null;index"`
	CreditCost           decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	RecordsFileName      string          `gorm:"column:records_file_name"`
	ArchiveFileName      string          `gorm:"column:archive_file_name"`
	CreatedAt            time.Time       `gorm:"not null;index"`
	Documents            []DocumentModel `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

func (SubmissionModel) TableName() string { return "rex_submissions" }

type DocumentModel struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	SubmissionID string `gorm:"not null;index;type:uuid"`
	Kind         string `gorm:"not null"`
	Filename     string `gorm:"not null"`
	StoragePath  string `gorm:"not null"`
	SizeBytes    int64  `gorm:"not null"`
}

func (DocumentModel) TableName() string { return "rex_documents" }

// UserModel maps the columns of the shared users table this service reads
// and charges.
type UserModel struct {
	ID      string          `gorm:"primaryKey"`
	Credits decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	IsAdmin bool            `gorm:"not null;default:false"`
}

func (UserModel) TableName() string { return "users" }

type JobModel struct {
	ID            string          `gorm:"primaryKey"`
	UserID        string          `gorm:"not null;index"`
	ServiceID     string          `gorm:"not null"`
	ServiceName   string          `gorm:"column:service_name"`
	InputFileName string          `gorm:"column:input_file_name"`
	CreditsUsed   decimal.Decimal `gorm:"type:numeric(10,2)"`
	ResultFiles   datatypes.JSON  `gorm:"type:jsonb"`
	DownloadURL   string          `gorm:"column:download_url"`
	Status        string          `gorm:"not null;index"`
	CreatedAt     time.Time       `gorm:"not null"`
	CompletedAt   *time.Time      `gorm:"index"`
}

func (JobModel) TableName() string { return "automation_jobs" }

type HistoryModel struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement"`
	UserID             string          `gorm:"not null;index:idx_work_history_lookup"`
	ServiceID          string          `gorm:"not null;index:idx_work_history_lookup"`
	ServiceName        string          `gorm:"column:service_name"`
	FileName           string          `gorm:"index:idx_work_history_lookup"`
	CreditsUsed        decimal.Decimal `gorm:"type:numeric(10,2)"`
	Status             string          `gorm:"column:status"`
	ResultFiles        datatypes.JSON  `gorm:"type:jsonb"`
	DownloadURL        string          `gorm:"column:download_url"`
	ExpiresAt          time.Time       `gorm:"column:expires_at"`
	GeneratedFileCount int             `gorm:"column:generated_file_count;not null;default:0"`
	CreatedAt          time.Time       `gorm:"not null;index:idx_work_history_lookup"`
}

func (HistoryModel) TableName() string { return "work_history" }

func submissionToModel(sub domain.Submission) SubmissionModel {
	extra, _ := json.Marshal(sub.Record.Extra)
	docs := make([]DocumentModel, 0, len(sub.Documents))
	for _, d := range sub.Documents {
		docs = append(docs, documentToModel(d))
	}
	return SubmissionModel{
		ID:                   sub.ID,
		UserID:               sub.UserID,
		RowIndex:             sub.Record.RowIndex,
		ImporterID:           sub.Record.ImporterID,
		DestinationCountryID: sub.Record.DestinationCountryID,
		BLNumber:             sub.Record.BLNumber,
		BLDate:               sub.Record.BLDate,
		InvoiceNumber:        sub.Record.InvoiceNumber,
		InvoiceDate:          sub.Record.InvoiceDate,
		InvoiceValue:         sub.Record.InvoiceValue,
		Extra:                extra,
		Status:               string(sub.Status),
		CreditCost:           sub.CreditCost,
		RecordsFileName:      sub.RecordsFileName,
		ArchiveFileName:      sub.ArchiveFileName,
		CreatedAt:            sub.CreatedAt,
		Documents:            docs,
	}
}

func submissionFromModel(m SubmissionModel) domain.Submission {
	var extra map[string]string
	if len(m.Extra) > 0 {
		_ = json.Unmarshal(m.Extra, &extra)
	}
	docs := make([]domain.SubmissionDocument, 0, len(m.Documents))
	for _, d := range m.Documents {
		docs = append(docs, documentFromModel(d))
	}
	return domain.Submission{
		ID:     m.ID,
		UserID: m.UserID,
		Record: domain.ShipmentRecord{
			RowIndex:             m.RowIndex,
			ImporterID:           m.ImporterID,
			DestinationCountryID: m.DestinationCountryID,
			BLNumber:             m.BLNumber,
			BLDate:               m.BLDate,
			InvoiceNumber:        m.InvoiceNumber,
			InvoiceDate:          m.InvoiceDate,
			InvoiceValue:         m.InvoiceValue,
			Extra:                extra,
		},
		Status:          domain.SubmissionStatus(m.Status),
		CreditCost:      m.CreditCost,
		RecordsFileName: m.RecordsFileName,
		ArchiveFileName: m.ArchiveFileName,
		Documents:       docs,
		CreatedAt:       m.CreatedAt,
	}
}

func documentToModel(d domain.SubmissionDocument) DocumentModel {
	return DocumentModel{
		ID:           d.ID,
		SubmissionID: d.SubmissionID,
		Kind:         string(d.Kind),
		Filename:     d.Filename,
		StoragePath:  d.StoragePath,
		SizeBytes:    int64(d.SizeBytes),
	}
}

func documentFromModel(m DocumentModel) domain.SubmissionDocument {
	return domain.SubmissionDocument{
		ID:           m.ID,
		SubmissionID: m.SubmissionID,
		Kind:         domain.DocumentKind(m.Kind),
		Filename:     m.Filename,
		StoragePath:  m.StoragePath,
		SizeBytes:    uint64(m.SizeBytes),
	}
}

func jobFromModel(m JobModel) domain.JobRecord {
	var files []string
	if len(m.ResultFiles) > 0 {
		_ = json.Unmarshal(m.ResultFiles, &files)
	}
	return domain.JobRecord{
		JobID:         m.ID,
		UserID:        m.UserID,
		ServiceID:     m.ServiceID,
		ServiceName:   m.ServiceName,
		InputFileName: m.InputFileName,
		CreditsUsed:   m.CreditsUsed,
		ResultFiles:   files,
		DownloadURL:   m.DownloadURL,
		Status:        domain.JobStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
	}
}

func historyToModel(e domain.HistoryEntry) HistoryModel {
	files := e.ResultFiles
	if files == nil {
		files = []string{}
	}
	raw, _ := json.Marshal(files)
	return HistoryModel{
		ID:                 e.ID,
		UserID:             e.UserID,
		ServiceID:          e.ServiceID,
		ServiceName:        e.ServiceName,
		FileName:           e.FileName,
		CreditsUsed:        e.CreditsUsed,
		Status:             string(e.Status),
		ResultFiles:        raw,
		DownloadURL:        e.DownloadURL,
		ExpiresAt:          e.ExpiresAt,
		GeneratedFileCount: e.GeneratedFileCount,
		CreatedAt:          e.CreatedAt,
	}
}
