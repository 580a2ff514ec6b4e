package domain

import "time"

// FormType represents an EDGAR submission type targeted by the crawl.
// Values include FormType10K, FormType10Q, and their amended variants.
type FormType string

const (
	FormType10K  FormType = "10-K"
	FormType10Q  FormType = "10-Q"
	FormType10KA FormType = "10-K/A"
	FormType10QA FormType = "10-Q/A"
)

// TargetFormTypes is the set of submission types the crawl downloads.
var TargetFormTypes = []FormType{FormType10K, FormType10Q, FormType10KA, FormType10QA}

// IsTargetForm reports whether a raw form type string is in the target set.
// Parameters:
//   - form: raw form type as printed in an index file.
// Returns:
//   - bool: true if the form is one of the targeted types.
func IsTargetForm(form string) bool {
	for _, t := range TargetFormTypes {
		if form == string(t) {
			return true
		}
	}
	return false
}

// IsAnnual reports whether the form is a 10-K or amended 10-K.
func (f FormType) IsAnnual() bool {
	return f == FormType10K || f == FormType10KA
}

// IsQuarterly reports whether the form is a 10-Q or amended 10-Q.
func (f FormType) IsQuarterly() bool {
	return f == FormType10Q || f == FormType10QA
}

// FiscalPeriod represents the reporting period a filing covers.
// Values are FiscalQ1..FiscalQ4 for quarterly reports and FiscalFY for annual reports.
type FiscalPeriod string

const (
	FiscalQ1 FiscalPeriod = "Q1"
	FiscalQ2 FiscalPeriod = "Q2"
	FiscalQ3 FiscalPeriod = "Q3"
	FiscalQ4 FiscalPeriod = "Q4"
	FiscalFY FiscalPeriod = "FY"
)

// FilingDescriptor is one filing as listed in a daily index file.
// Identity is the (CIK, AccessionNumber) pair.
type FilingDescriptor struct {
	CompanyName     string
	FormType        FormType
	CIK             string // zero-padded to 10 digits
	DateFiled       string // YYYYMMDD as printed in the index
	AccessionNumber string // NNNNNNNNNN-YY-NNNNNN
	SourceURL       string // absolute URL of the complete submission text
}

// FilingID returns the descriptor's composite identity.
func (d FilingDescriptor) FilingID() string {
	return FilingID(d.CIK, d.AccessionNumber)
}

// FilingID builds the composite identity used as the filings table primary
// key. Writers and readers must agree on this function.
// Parameters:
//   - cik: zero-padded 10-digit CIK.
//   - accessionNumber: accession number with dashes.
// Returns:
//   - string: stable identity, cik + "_" + accession.
func FilingID(cik, accessionNumber string) string {
	return cik + "_" + accessionNumber
}

// FiscalInfo holds fiscal metadata extracted from a complete submission
// text. Every field is best-effort; an empty string means the source text
// did not carry that header.
type FiscalInfo struct {
	FiscalYear    string       // 4 digits
	FiscalPeriod  FiscalPeriod // Q1..Q4 or FY, empty when undetermined
	PeriodEndDate string       // YYYY-MM-DD
	PeriodEndYear string       // 4 digits, from PeriodEndDate
	DateFiled     string       // YYYY-MM-DD
	DateFiledYear string       // 4 digits, from DateFiled
	CompanyName   string       // conformed name, may override the index listing
	FormType      FormType
}

// DocumentURLMap maps a logical document key to an absolute URL.
// Well-known keys: the filing's form type for the primary document,
// "complete_txt" for the full submission text, "financial_report_xlsx" for
// the rendered spreadsheet, "xbrl_instance" for the canonical XBRL instance,
// and "xbrl_<type>" for other data files.
type DocumentURLMap map[string]string

const (
	DocKeyCompleteText    = "complete_txt"
	DocKeyFinancialReport = "financial_report_xlsx"
	DocKeyXBRLInstance    = "xbrl_instance"
)

// HasPrimaryDocument reports whether the map carries a primary document for
// the given form type, which marks the filing as an HTML bundle.
func (m DocumentURLMap) HasPrimaryDocument(form FormType) bool {
	_, ok := m[string(form)]
	return ok
}

// DownloadStatus values persisted on a FilingRecord.
const DownloadStatusCompleted = "completed"

// FilingRecord is the persisted completion record for one filing. A row
// exists iff the filing's documents were fully staged to disk at least once;
// absence means the filing must be (re)downloaded.
type FilingRecord struct {
	FilingID        string    `gorm:"type:text;primaryKey" json:"filing_id"`
	CIK             string    `gorm:"type:text;not null;index:idx_filings_cik" json:"cik"`
	AccessionNumber string    `gorm:"type:text;not null;index:idx_filings_accession" json:"accession_number"`
	FormType        string    `gorm:"type:text;not null;index:idx_filings_form_type" json:"form_type"`
	CompanyName     string    `gorm:"type:text" json:"company_name"`
	Ticker          string    `gorm:"type:text" json:"ticker,omitempty"`
	FiscalYear      string    `gorm:"type:text;index:idx_filings_fiscal_year" json:"fiscal_year"`
	FiscalPeriod    string    `gorm:"type:text" json:"fiscal_period"`
	FilingDate      string    `gorm:"type:text;index:idx_filings_filing_date" json:"filing_date"`
	PeriodEndDate   string    `gorm:"type:text" json:"period_end_date"`
	FilePath        string    `gorm:"type:text" json:"file_path"`
	FileCount       int       `gorm:"default:0" json:"file_count"`
	TotalSize       int64     `gorm:"default:0" json:"total_size"`
	DownloadStatus  string    `gorm:"type:text;default:completed" json:"download_status"`
	HasXBRLFormat   bool      `gorm:"default:false" json:"has_xbrl_format"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for FilingRecord.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (FilingRecord) TableName() string {
	return "filings"
}

// FilingStats summarizes the persisted completion state.
type FilingStats struct {
	TotalFilings    int64            `json:"total_filings"`
	UniqueCompanies int64            `json:"unique_companies"`
	YearsCovered    int64            `json:"years_covered"`
	FormTypes       map[string]int64 `json:"form_types"`
}

// CompanyYearFiling is one row of a per-company, per-fiscal-year lookup.
type CompanyYearFiling struct {
	FormType     string `json:"form_type"`
	FiscalPeriod string `json:"fiscal_period"`
}
