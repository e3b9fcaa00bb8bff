package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"rag-chatbot-platform/internal/logger"
)

// ExportService renders a tenant's document catalog as a spreadsheet.
type ExportService struct {
	catalog *CatalogService
}

func NewExportService(catalog *CatalogService) *ExportService {
	return &ExportService{catalog: catalog}
}

// ExportCatalogXLSX builds an XLSX workbook with one row per ingested file.
func (s *ExportService) ExportCatalogXLSX(ctx context.Context, tenant string) ([]byte, error) {
	entries, err := s.catalog.ListByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for tenant %s: %w", tenant, err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("Error closing Excel file", "error", err)
		}
	}()

	sheetName := "Documents"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Filename", "Chunks", "Status", "Error", "Uploaded At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, entry := range entries {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), entry.Filename)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entry.ChunkCount)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), entry.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), entry.Error)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), entry.UploadedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}
