package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bank-reconciliation-backend/internal/config"
	handler "bank-reconciliation-backend/internal/handlers"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/ingestion"
	"bank-reconciliation-backend/internal/services/matching"
	"bank-reconciliation-backend/internal/services/reconciliation"
	"bank-reconciliation-backend/internal/storage"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) error {
	transactionRepo := repository.NewBankTransactionRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	ledgerRepo := repository.NewMatchRecordRepository(db)
	jobRepo := repository.NewImportJobRepository(db)

	fileStore, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	reconService := reconciliation.NewService(
		db,
		transactionRepo,
		invoiceRepo,
		expenseRepo,
		ledgerRepo,
		matching.Config{},
	)
	gate := ingestion.NewGate(jobRepo, fileStore, nil)

	reconHandler := handler.NewReconciliationHandler(reconService, gate, cfg.AutoMatchThreshold)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Statement ingestion
	statements := api.Group("/statements")
	statements.POST("/upload", reconHandler.UploadStatement)
	statements.GET("/:jobId", reconHandler.GetImportJob)

	// Reconciliation
	recon := api.Group("/reconciliation")
	recon.POST("/run", reconHandler.RunAutoMatch)
	recon.GET("/runs/:runId", reconHandler.GetRunStats)
	recon.GET("/summary", reconHandler.Summary)

	// Transaction-level routes
	tx := api.Group("/transactions")
	tx.GET("/:id/candidates", reconHandler.ListCandidates)
	tx.POST("/:id/link", reconHandler.ManualLink)
	tx.POST("/:id/unlink", reconHandler.ManualUnlink)
	tx.POST("/:id/ignore", reconHandler.MarkIgnored)

	return nil
}
