package service

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/edgar"
	"github.com/timmy/edgarvault/internal/logger"
	"github.com/timmy/edgarvault/internal/repository"
	"github.com/timmy/edgarvault/internal/storage"
)

// imgSrcPattern matches inline image references with a relative source path.
// Staged HTML is viewed offline, so sources are rewritten to absolute
// archive URLs before the file hits disk.
var imgSrcPattern = regexp.MustCompile(`(?i)<img[^>]*src=["']([^"']*\.(?:jpg|png|gif))["']`)

// DownloadOrchestrator processes a single filing end to end: completion
// check, document discovery, fiscal extraction, staging, and the completion
// record commit.
type DownloadOrchestrator struct {
	filingRepo *repository.FilingRepository
	discovery  *edgar.DocumentDiscovery
	fiscal     *edgar.FiscalExtractor
	client     *edgar.Client
	store      storage.DocumentStore
	logger     *logger.Logger
}

// NewDownloadOrchestrator creates a download orchestrator.
// Parameters:
//   - filingRepo: completion record store.
//   - discovery: per-filing document discovery.
//   - fiscal: fiscal metadata extractor.
//   - client: rate-limited fetch client for document payloads.
//   - store: document staging area.
//   - log: base logger, used when the context carries none.
// Returns:
//   - *DownloadOrchestrator: orchestrator instance.
func NewDownloadOrchestrator(
	filingRepo *repository.FilingRepository,
	discovery *edgar.DocumentDiscovery,
	fiscal *edgar.FiscalExtractor,
	client *edgar.Client,
	store storage.DocumentStore,
	log *logger.Logger,
) *DownloadOrchestrator {
	return &DownloadOrchestrator{
		filingRepo: filingRepo,
		discovery:  discovery,
		fiscal:     fiscal,
		client:     client,
		store:      store,
		logger:     log,
	}
}

// log returns a logger from context if available, otherwise the service's own.
func (o *DownloadOrchestrator) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return o.logger
}

// DownloadResult reports the outcome of processing one filing.
type DownloadResult struct {
	Descriptor domain.FilingDescriptor
	Downloaded []string // absolute paths of staged documents
	Failed     []string // document keys that could not be staged
	Skipped    bool     // true when a completion record already existed
}

// Download processes one filing. Already-recorded filings are skipped
// without any fetch. The completion record is committed only after at least
// one document reached disk, so the store never claims documents that do
// not exist.
// Parameters:
//   - ctx: run context; cancellation aborts between fetches.
//   - desc: the filing as listed in a daily index.
// Returns:
//   - *DownloadResult: per-filing outcome, nil only on error.
//   - error: *FatalError aborts the run; anything else fails this item only.
func (o *DownloadOrchestrator) Download(ctx context.Context, desc domain.FilingDescriptor) (*DownloadResult, error) {
	ctx = logger.SetFiling(ctx, desc.CIK, desc.AccessionNumber)
	result := &DownloadResult{Descriptor: desc}

	downloaded, err := o.filingRepo.IsDownloaded(ctx, desc.CIK, desc.AccessionNumber)
	if err != nil {
		return nil, fmt.Errorf("completion check failed: %w", err)
	}
	if downloaded {
		result.Skipped = true
		return result, nil
	}

	urls, err := o.discovery.Discover(ctx, desc.SourceURL)
	if err != nil {
		return nil, err
	}

	info, err := o.fiscal.Extract(ctx, urls[domain.DocKeyCompleteText])
	if err != nil {
		return nil, err
	}

	companyName := info.CompanyName
	if companyName == "" {
		companyName = desc.CompanyName
	}

	base := storage.BuildFilename(info, desc)
	hasXBRL := false

	if urls.HasPrimaryDocument(desc.FormType) {
		for key, docURL := range urls {
			var filename string
			rewriteImages := false
			switch {
			case key == string(desc.FormType):
				filename = storage.DocumentFilename(base, "main", docURL)
				rewriteImages = true
			case strings.Contains(key, "xbrl"):
				filename = storage.DocumentFilename(base, key, docURL)
				hasXBRL = true
			case strings.Contains(strings.ToUpper(key), "EX"):
				filename = storage.DocumentFilename(base, key, docURL)
				rewriteImages = true
			default:
				continue
			}
			if err := o.stageDocument(ctx, result, desc.CIK, key, docURL, filename, rewriteImages); err != nil {
				return nil, err
			}
		}
	} else if txtURL, ok := urls[domain.DocKeyCompleteText]; ok {
		if err := o.stageDocument(ctx, result, desc.CIK, domain.DocKeyCompleteText, txtURL,
			base+"_full_submission.txt", false); err != nil {
			return nil, err
		}
	}

	// Older filings have no rendered spreadsheet; a miss here is routine.
	if xlsxURL, ok := urls[domain.DocKeyFinancialReport]; ok {
		if err := o.stageDocument(ctx, result, desc.CIK, domain.DocKeyFinancialReport, xlsxURL,
			base+"_financial_report.xlsx", false); err != nil {
			return nil, err
		}
	}

	if len(result.Downloaded) == 0 {
		o.log(ctx).Warn("No documents staged, filing left unrecorded")
		return result, nil
	}

	if err := o.commit(ctx, desc, info, companyName, len(result.Downloaded), hasXBRL); err != nil {
		o.log(ctx).WithError(err).Error("Failed to record completed filing")
		result.Failed = append(result.Failed, "record")
	}

	return result, nil
}

// stageDocument fetches one document and writes it under the company
// directory. Non-200 responses skip the document; write failures count as
// item failures; only fatal fetch conditions return an error.
func (o *DownloadOrchestrator) stageDocument(ctx context.Context, result *DownloadResult, cik, key, docURL, filename string, rewriteImages bool) error {
	resp, err := o.client.Get(ctx, docURL)
	if err != nil {
		return err
	}
	if !resp.OK() {
		o.log(ctx).Debugf("Document %s unavailable (status %d)", key, resp.StatusCode)
		return nil
	}

	data := resp.Body
	if rewriteImages && isHTMLDocument(docURL) {
		data = []byte(absolutizeImageSources(resp.Text(), docURL))
	}

	path, err := o.store.Write(ctx, cik, filename, data)
	if err != nil {
		o.log(ctx).WithError(err).Warnf("Failed to stage document %s", key)
		result.Failed = append(result.Failed, key)
		return nil
	}

	result.Downloaded = append(result.Downloaded, path)
	o.log(ctx).WithField(logger.FieldSize, len(data)).Infof("Saved %s to %s", key, path)
	return nil
}

// commit writes the completion record. Fiscal fields fall back to the index
// listing when extraction came up empty.
func (o *DownloadOrchestrator) commit(ctx context.Context, desc domain.FilingDescriptor, info domain.FiscalInfo, companyName string, fileCount int, hasXBRL bool) error {
	filingDate := info.DateFiled
	if filingDate == "" {
		filingDate = formatIndexDate(desc.DateFiled)
	}
	periodEnd := info.PeriodEndDate
	if periodEnd == "" {
		periodEnd = filingDate
	}

	count, size, err := o.store.DirStats(desc.CIK)
	if err != nil {
		count, size = fileCount, 0
	}

	record := &domain.FilingRecord{
		FilingID:        desc.FilingID(),
		CIK:             desc.CIK,
		AccessionNumber: desc.AccessionNumber,
		FormType:        string(desc.FormType),
		CompanyName:     companyName,
		FiscalYear:      info.FiscalYear,
		FiscalPeriod:    string(info.FiscalPeriod),
		FilingDate:      filingDate,
		PeriodEndDate:   periodEnd,
		FilePath:        o.store.CompanyDir(desc.CIK),
		FileCount:       count,
		TotalSize:       size,
		DownloadStatus:  domain.DownloadStatusCompleted,
		HasXBRLFormat:   hasXBRL,
	}

	return o.filingRepo.Add(ctx, record)
}

// absolutizeImageSources rewrites relative image sources to absolute URLs
// in the document's archive directory, so staged HTML renders offline
// against the live archive.
func absolutizeImageSources(html, docURL string) string {
	dir := docURL
	if idx := strings.LastIndex(docURL, "/"); idx != -1 {
		dir = docURL[:idx]
	}

	return imgSrcPattern.ReplaceAllStringFunc(html, func(tag string) string {
		m := imgSrcPattern.FindStringSubmatch(tag)
		if m == nil {
			return tag
		}
		src := m[1]
		if u, err := url.Parse(src); err == nil && u.IsAbs() {
			return tag
		}
		name := src
		if idx := strings.LastIndex(src, "/"); idx != -1 {
			name = src[idx+1:]
		}
		return strings.Replace(tag, src, dir+"/"+name, 1)
	})
}

func isHTMLDocument(docURL string) bool {
	lower := strings.ToLower(docURL)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html") ||
		strings.HasSuffix(lower, ".txt")
}

// formatIndexDate converts a YYYYMMDD index date to YYYY-MM-DD.
func formatIndexDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}
