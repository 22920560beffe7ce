package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/storage"

	"github.com/google/uuid"
)

const DefaultMaxFileSize = 20 << 20 // 20 MiB

var allowedExtensions = map[string]bool{
	".csv": true,
	".xml": true,
	".pdf": true,
}

// Scanner checks uploaded content before it is persisted. An implementation
// backed by a real AV engine can be swapped in; the default sniffs for
// content that should never appear in a bank statement.
type Scanner interface {
	Scan(content []byte) error
}

type sniffScanner struct{}

var executableMagics = [][]byte{
	{'M', 'Z'},                   // PE
	{0x7f, 'E', 'L', 'F'},        // ELF
	{0xca, 0xfe, 0xba, 0xbe},     // Mach-O fat
	{'#', '!', '/'},              // script shebang
	{'P', 'K', 0x03, 0x04, 0x14}, // generic zip container
}

func (sniffScanner) Scan(content []byte) error {
	for _, magic := range executableMagics {
		if bytes.HasPrefix(content, magic) {
			return fmt.Errorf("content signature %x is not an accepted statement format", magic)
		}
	}
	return nil
}

// JobStore is the slice of the import-job repository the gate needs.
type JobStore interface {
	Create(job *models.ImportJob) error
	GetByID(id uuid.UUID) (*models.ImportJob, error)
	FindByAccountAndChecksum(accountID uuid.UUID, checksum string) (*models.ImportJob, error)
	UpdateStatus(id uuid.UUID, status string) error
}

var _ JobStore = (*repository.ImportJobRepository)(nil)

// Gate accepts statement uploads: validate, checksum, dedup, scan, persist,
// record. Persisting the file and inserting the job row are two writes; a
// failed insert triggers a compensating delete of the just-written file.
type Gate struct {
	jobs    JobStore
	store   *storage.FileStore
	scanner Scanner
	maxSize int64
}

func NewGate(jobs JobStore, store *storage.FileStore, scanner Scanner) *Gate {
	if scanner == nil {
		scanner = sniffScanner{}
	}
	return &Gate{
		jobs:    jobs,
		store:   store,
		scanner: scanner,
		maxSize: DefaultMaxFileSize,
	}
}

type UploadResult struct {
	JobID        uuid.UUID `json:"job_id"`
	Deduplicated bool      `json:"deduplicated"`
	Status       string    `json:"status"`
}

func (g *Gate) Upload(ctx context.Context, companyID, accountID uuid.UUID, filename string, content []byte) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, apperrors.NewValidation("file", fmt.Sprintf("unsupported file type %q", ext))
	}
	if len(content) == 0 {
		return nil, apperrors.NewValidation("file", "file is empty")
	}
	if int64(len(content)) > g.maxSize {
		return nil, apperrors.NewValidation("file", fmt.Sprintf("file exceeds %d bytes", g.maxSize))
	}

	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	existing, err := g.jobs.FindByAccountAndChecksum(accountID, checksum)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "look up prior import", Err: err}
	}
	if existing != nil {
		return &UploadResult{JobID: existing.ID, Deduplicated: true, Status: existing.Status}, nil
	}

	if err := g.scanner.Scan(content); err != nil {
		return nil, apperrors.NewValidation("file", fmt.Sprintf("rejected by security scan: %v", err))
	}

	storedName := fmt.Sprintf("%s_%s%s", accountID, checksum[:12], ext)
	path, err := g.store.Save(storedName, content)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "store statement file", Err: err}
	}

	job := &models.ImportJob{
		ID:            uuid.New(),
		CompanyID:     companyID,
		BankAccountID: accountID,
		Checksum:      checksum,
		Filename:      filename,
		StoragePath:   path,
		Status:        models.ImportJobStatusUploaded,
		Tier:          detectTier(ext, content),
		CreatedAt:     time.Now(),
	}

	if err := g.jobs.Create(job); err != nil {
		// The file is already on disk; clean it up so a failed insert does
		// not orphan it. Cleanup failures are logged and left to a sweep.
		if rmErr := g.store.Remove(path); rmErr != nil {
			log.Printf("cleanup after failed import job insert: %v", rmErr)
		}
		// A concurrent upload may have won the (account, checksum) race.
		if dup, probeErr := g.jobs.FindByAccountAndChecksum(accountID, checksum); probeErr == nil && dup != nil {
			return nil, &apperrors.DuplicateUploadError{JobID: dup.ID, Checksum: checksum}
		}
		return nil, &apperrors.PersistenceError{Op: "create import job", Err: err}
	}

	return &UploadResult{JobID: job.ID, Deduplicated: false, Status: job.Status}, nil
}

// GetJob exposes import job status to callers.
func (g *Gate) GetJob(id uuid.UUID) (*models.ImportJob, error) {
	return g.jobs.GetByID(id)
}

// MarkProcessing flags a job as picked up by the statement parser.
func (g *Gate) MarkProcessing(id uuid.UUID) error {
	return g.jobs.UpdateStatus(id, models.ImportJobStatusProcessing)
}

// detectTier classifies the upload: structured files parse directly, PDFs go
// through the OCR pipeline.
func detectTier(ext string, content []byte) string {
	if ext == ".pdf" || bytes.HasPrefix(content, []byte("%PDF")) {
		return models.ImportTierOCR
	}
	return models.ImportTierStructured
}
