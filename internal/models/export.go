package models

import "strings"

// ExportFormat is an output format for changesets and enrollment plans.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat normalises a user supplied format; blank means JSON.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatJSON:
		return ExportFormatJSON, true
	case ExportFormatCSV:
		return ExportFormatCSV, true
	case ExportFormatPDF:
		return ExportFormatPDF, true
	default:
		return "", false
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}
