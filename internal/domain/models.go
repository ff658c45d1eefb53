package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentKind string

const (
	DocumentKindBL      DocumentKind = "BL"
	DocumentKindInvoice DocumentKind = "INVOICE"
)

type DocumentEntry struct {
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path"`
	SizeBytes   uint64 `json:"size_bytes"`
}

// ShipmentRecord is one parsed row of the records file. RowIndex is the
// 0-based data row position in the source file.
type ShipmentRecord struct {
	RowIndex             int               `json:"row_index"`
	ImporterID           string            `json:"importer_id"`
	DestinationCountryID string            `json:"destination_country_id"`
	BLNumber             string            `json:"bl_number"`
	InvoiceNumber        string            `json:"invoice_number"`
	BLDate               string            `json:"bl_date"`
	InvoiceDate          string            `json:"invoice_date"`
	InvoiceValue         decimal.Decimal   `json:"invoice_value"`
	Extra                map[string]string `json:"extra,omitempty"`
}

type MatchResult struct {
	Record          ShipmentRecord `json:"record"`
	BLDocument      *DocumentEntry `json:"bl_document"`
	InvoiceDocument *DocumentEntry `json:"invoice_document"`
	IsComplete      bool           `json:"is_complete"`
	MissingKinds    []DocumentKind `json:"missing_kinds"`
}

type SubmissionStatus string

const (
	SubmissionStatusPending    SubmissionStatus = "pending"
	SubmissionStatusProcessing SubmissionStatus = "processing"
	SubmissionStatusCompleted  SubmissionStatus = "completed"
	SubmissionStatusFailed     SubmissionStatus = "failed"
)

type Submission struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Record          ShipmentRecord       `json:"record"`
	Status          SubmissionStatus     `json:"status"`
	CreditCost      decimal.Decimal      `json:"credit_cost"`
	RecordsFileName string               `json:"records_file_name"`
	ArchiveFileName string               `json:"archive_file_name"`
	Documents       []SubmissionDocument `json:"documents"`
	CreatedAt       time.Time            `json:"created_at"`
}

type SubmissionDocument struct {
	ID           string       `json:"id"`
	SubmissionID string       `json:"submission_id"`
	Kind         DocumentKind `json:"kind"`
	Filename     string       `json:"filename"`
	StoragePath  string       `json:"-"`
	SizeBytes    uint64       `json:"size_bytes"`
}

// Account is the slice of the external credit ledger the coordinator needs.
type Account struct {
	UserID  string          `json:"user_id"`
	Credits decimal.Decimal `json:"credits"`
	IsAdmin bool            `json:"is_admin"`
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type JobRecord struct {
	JobID         string          `json:"job_id"`
	UserID        string          `json:"user_id"`
	ServiceID     string          `json:"service_id"`
	ServiceName   string          `json:"service_name"`
	InputFileName string          `json:"input_file_name"`
	CreditsUsed   decimal.Decimal `json:"credits_used"`
	ResultFiles   []string        `json:"result_files"`
	DownloadURL   string          `json:"download_url"`
	Status        JobStatus       `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

type HistoryEntry struct {
	ID                 int64           `json:"id"`
	UserID             string          `json:"user_id"`
	ServiceID          string          `json:"service_id"`
	ServiceName        string          `json:"service_name"`
	FileName           string          `json:"file_name"`
	CreditsUsed        decimal.Decimal `json:"credits_used"`
	Status             JobStatus       `json:"status"`
	ResultFiles        []string        `json:"result_files"`
	DownloadURL        string          `json:"download_url"`
	ExpiresAt          time.Time       `json:"expires_at"`
	GeneratedFileCount int             `json:"generated_file_count"`
	CreatedAt          time.Time       `json:"created_at"`
}
