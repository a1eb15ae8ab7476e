package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"crowdguard/internal/models"

	"github.com/xuri/excelize/v2"
)

// CrowdDataExportHeader 导出表头
var CrowdDataExportHeader = []string{
	"Zone ID",
	"Timestamp",
	"People Count",
	"Density Level",
}

const crowdDataSheet = "Crowd Data"

// GenerateCrowdDataExport 生成人流读数导出 Excel 文件；readings 为空时只有表头
func GenerateCrowdDataExport(readings []models.CrowdReading) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(crowdDataSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(CrowdDataExportHeader))
	for i, h := range CrowdDataExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(crowdDataSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(crowdDataSheet, "A1", "D1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(crowdDataSheet, "A", "A", 12); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(crowdDataSheet, "B", "B", 24); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(crowdDataSheet, "C", "D", 15); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	// 从第2行开始写数据
	for i, reading := range readings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := []interface{}{
			reading.ZoneID,
			reading.Timestamp.UTC().Format(time.RFC3339),
			reading.PeopleCount,
			string(reading.DensityLevel),
		}
		if err := f.SetSheetRow(crowdDataSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	return buf.Bytes(), nil
}
