package storage

import (
	"strings"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/edgar"
)

// BuildFilename derives the stable on-disk base name for a filing's
// documents. Quarterly filings with complete fiscal metadata use
// "<year>_<form>_<period>", annual filings "<year>_<form>"; anything missing
// metadata falls back to a date stamp. The company name is appended last so
// directory listings group by period.
// Parameters:
//   - info: fiscal metadata, fields may be empty.
//   - descriptor: the index listing, used for fallback dates and names.
// Returns:
//   - string: filesystem-safe base name without extension.
func BuildFilename(info domain.FiscalInfo, descriptor domain.FilingDescriptor) string {
	form := info.FormType
	if form == "" {
		form = descriptor.FormType
	}

	cleanForm := "UNKNOWN"
	if form != "" {
		cleanForm = strings.ReplaceAll(strings.ReplaceAll(string(form), "/", "_"), " ", "")
	}

	company := info.CompanyName
	if company == "" {
		company = descriptor.CompanyName
	}
	company = sanitizePathComponent(company)

	var stem string
	switch {
	case form.IsQuarterly():
		if info.FiscalYear != "" && info.FiscalPeriod != "" {
			stem = info.FiscalYear + "_" + cleanForm + "_" + string(info.FiscalPeriod)
		} else {
			stem = fallbackDateStamp(info, descriptor)
		}
	case form.IsAnnual():
		if info.FiscalYear != "" {
			stem = info.FiscalYear + "_" + cleanForm
		} else if est := edgar.EstimateAnnualFiscalYear(fallbackDateStamp(info, descriptor)); est != "" {
			stem = est + "_" + cleanForm
		} else {
			stem = fallbackDateStamp(info, descriptor)
		}
	default:
		stem = fallbackDateStamp(info, descriptor)
	}

	return sanitizePathComponent(stem) + "_" + company
}

// fallbackDateStamp prefers the period end date, then the filed date from
// the submission header, then the index listing date. Output is YYYYMMDD.
func fallbackDateStamp(info domain.FiscalInfo, descriptor domain.FilingDescriptor) string {
	switch {
	case info.PeriodEndDate != "":
		return strings.ReplaceAll(info.PeriodEndDate, "-", "")
	case info.DateFiled != "":
		return strings.ReplaceAll(info.DateFiled, "-", "")
	default:
		return descriptor.DateFiled
	}
}

// sanitizePathComponent strips characters that would escape or break a path
// segment.
func sanitizePathComponent(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return strings.TrimSpace(s)
}

// DocumentFilename names one staged document: base name, the document key,
// and the extension taken from its URL.
// Parameters:
//   - base: filing base name from BuildFilename.
//   - key: logical document key, "main" for the primary document.
//   - url: source URL, used only for its extension.
// Returns:
//   - string: complete file name.
func DocumentFilename(base, key, url string) string {
	segment := url
	if idx := strings.LastIndex(segment, "/"); idx != -1 {
		segment = segment[idx+1:]
	}
	ext := "htm"
	if idx := strings.LastIndex(segment, "."); idx != -1 && idx < len(segment)-1 {
		ext = segment[idx+1:]
	}
	return base + "_" + sanitizePathComponent(strings.ReplaceAll(key, "/", "_")) + "." + ext
}
