package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"fiscalio/internal/classification/noop"
	"fiscalio/internal/config"
	"fiscalio/internal/extractor"
	"fiscalio/internal/extractor/ocr"
	"fiscalio/internal/extractor/vision"
	"fiscalio/internal/extractor/xmlnfe"
	"fiscalio/internal/handler"
	"fiscalio/internal/router"
	"fiscalio/internal/service"
	"fiscalio/internal/validator"
	"fiscalio/internal/validator/fiscal"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize extractors
	rasterizer := ocr.NewPdftoppmRasterizer(cfg.OCR)
	recognizer := ocr.NewTesseractRecognizer(cfg.OCR)
	xmlExtractor := xmlnfe.NewExtractor()
	ocrExtractor := ocr.NewExtractor(rasterizer, recognizer, cfg.OCR)
	visionExtractor := vision.NewExtractor(cfg.Vision)

	coordinator := extractor.NewCoordinator(xmlExtractor, ocrExtractor, visionExtractor, rasterizer, cfg.Pipeline)

	// Initialize services
	validationEngine := validator.NewEngine(fiscal.DefaultRules()...)
	classifier := noop.NewNoopClassifier()
	docSvc := service.NewDocumentService(coordinator, validationEngine, classifier, cfg.Limits, cfg.Pipeline)

	// Initialize handlers
	docH := handler.NewDocumentHandler(docSvc)
	healthH := handler.NewHealthHandler(cfg.OCR)

	// Setup router
	r := router.Setup(cfg, docH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
