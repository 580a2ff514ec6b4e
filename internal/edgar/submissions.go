package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/logger"
)

// submissionsResponse is the shape of the submissions-by-company endpoint.
// Filing attributes arrive as parallel arrays.
type submissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// RecentFiling is one entry of a company's recent-filings list.
type RecentFiling struct {
	CIK             string `json:"cik"`
	CompanyName     string `json:"company_name"`
	FormType        string `json:"form_type"`
	AccessionNumber string `json:"accession_number"`
	FilingDate      string `json:"filing_date"` // YYYY-MM-DD
	ReportDate      string `json:"report_date"` // YYYY-MM-DD, may be empty
	PrimaryDocument string `json:"primary_document"`
	SourceURL       string `json:"source_url"`
}

// SubmissionsClient reads the submissions-by-company JSON endpoint.
type SubmissionsClient struct {
	client          *Client
	submissionsBase string
	archiveBase     string
}

// NewSubmissionsClient creates a submissions API client.
// Parameters:
//   - client: rate-limited fetch client.
//   - submissionsBase: base URL of the submissions endpoint.
//   - archiveBase: base URL of the archive root, for source URL construction.
// Returns:
//   - *SubmissionsClient: client instance.
func NewSubmissionsClient(client *Client, submissionsBase, archiveBase string) *SubmissionsClient {
	return &SubmissionsClient{
		client:          client,
		submissionsBase: strings.TrimRight(submissionsBase, "/"),
		archiveBase:     strings.TrimRight(archiveBase, "/"),
	}
}

// RecentFilings fetches a company's recent filings and denormalizes the
// endpoint's parallel arrays into records. Unavailable or malformed data
// soft-fails to an empty slice.
// Parameters:
//   - ctx: request context.
//   - cik: company identifier, padded to 10 digits if shorter.
// Returns:
//   - []RecentFiling: recent filings, newest first as served.
//   - error: *FatalError only.
func (s *SubmissionsClient) RecentFilings(ctx context.Context, cik string) ([]RecentFiling, error) {
	cik = PadCIK(cik)
	endpoint := fmt.Sprintf("%s/CIK%s.json", s.submissionsBase, cik)

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		logger.CtxWarn(ctx, "Submissions lookup failed for CIK %s (status %d)", cik, resp.StatusCode)
		return nil, nil
	}

	var data submissionsResponse
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		logger.CtxError(ctx, "Failed to parse submissions response for CIK %s: %v", cik, err)
		return nil, nil
	}

	recent := data.Filings.Recent
	filings := make([]RecentFiling, 0, len(recent.Form))
	for i := range recent.Form {
		f := RecentFiling{
			CIK:         cik,
			CompanyName: data.Name,
			FormType:    recent.Form[i],
		}
		if i < len(recent.AccessionNumber) {
			f.AccessionNumber = recent.AccessionNumber[i]
		}
		if i < len(recent.FilingDate) {
			f.FilingDate = recent.FilingDate[i]
		}
		if i < len(recent.ReportDate) {
			f.ReportDate = recent.ReportDate[i]
		}
		if i < len(recent.PrimaryDocument) {
			f.PrimaryDocument = recent.PrimaryDocument[i]
		}
		f.SourceURL = fmt.Sprintf("%s/edgar/data/%s/%s.txt",
			s.archiveBase, strings.TrimLeft(cik, "0"), f.AccessionNumber)
		filings = append(filings, f)
	}

	return filings, nil
}

// Descriptor converts a recent-filings record into a filing descriptor
// compatible with the daily-index pipeline.
func (f RecentFiling) Descriptor() domain.FilingDescriptor {
	return domain.FilingDescriptor{
		CompanyName:     f.CompanyName,
		FormType:        domain.FormType(f.FormType),
		CIK:             f.CIK,
		DateFiled:       strings.ReplaceAll(f.FilingDate, "-", ""),
		AccessionNumber: f.AccessionNumber,
		SourceURL:       f.SourceURL,
	}
}
