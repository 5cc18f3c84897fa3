package extract

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// additionalJSONFields are enrichment keys copied verbatim from the
// embedded posting object when present and not already set.
var additionalJSONFields = []string{
	"isReposted",
	"posterId",
	"easyApply",
	"isPromoted",
	"jobState",
	"contentSource",
	"companyWebsite",
	"companySlogan",
	"companyEmployeesCount",
	"jobApplicantInsights",
	"company",
	"salary",
	"recruiter",
}

// BuildRecord turns a fetched detail page into a JobRecord. It never fails:
// a document that will not even parse still yields a record assembled from
// the URL and referrer metadata.
func (e *Extractor) BuildRecord(meta crawler.ReferrerMeta, pageURL string, body []byte) crawler.JobRecord {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Debug("detail html unparsable, degrading to referrer metadata",
			zap.String("url", pageURL),
			zap.Error(err))
		return e.reconcile(meta, pageURL, nil, DetailFields{}, nil)
	}
	return e.reconcile(meta, pageURL, doc, parseDetail(doc, pageURL), EmbeddedJSON(doc))
}

// reconcile merges the candidate sources for one page into a record.
// Per-field precedence: selector value, then embedded JSON, then referrer
// metadata. Legacy aliases are synced last so both field generations leave
// populated and consistent.
func (e *Extractor) reconcile(meta crawler.ReferrerMeta, pageURL string, doc *goquery.Document, fields DetailFields, embedded map[string]any) crawler.JobRecord {
	now := e.clock.Now()
	job := JobData(embedded)

	rec := crawler.JobRecord{
		ID:             ResolveJobID(meta, pageURL, doc, embedded),
		Title:          CleanText(pick(fields.Title, jsonString(job, "title"), meta.Title)),
		CompanyName:    CleanText(pick(fields.CompanyName, jsonString(job, "companyName"), companyInfoName(embedded), meta.CompanyName)),
		Location:       CleanText(pick(fields.Location, jsonString(job, "formattedLocation"), jsonString(job, "location"), meta.Location)),
		Link:           pageURL,
		EmploymentType: CleanText(fields.EmploymentType),
		SeniorityLevel: CleanText(fields.SeniorityLevel),
		PostedAt:       postedAt(fields, meta, job, now),
		ScrapedAt:      now.Format(crawler.TimeLayout),
		Source:         crawler.Source,
	}
	rec.SourceID = rec.ID
	rec.DescriptionText = descriptionText(fields, job)

	rec.SetExtra("easyApply", fields.EasyApply)
	rec.SetExtra("applyUrl", fields.ApplyURL)
	rec.SetExtra("companyLinkedinUrl", fields.CompanyLinkedinURL)
	rec.SetExtra("companyLogo", pick(fields.CompanyLogo, meta.CompanyLogo))
	rec.SetExtra("companyDescription", CleanText(fields.CompanyDescription))
	rec.SetExtra("applicants", fields.Applicants)
	if len(fields.WorkplaceTypes) > 0 {
		rec.SetExtra("jobWorkplaceTypes", fields.WorkplaceTypes)
	}
	if len(fields.Insights) > 0 {
		rec.SetExtra("insights", fields.Insights)
	}
	if len(fields.Skills) > 0 {
		rec.SetExtra("skills", fields.Skills)
	} else if v, ok := job["skills"]; ok && v != nil {
		rec.SetExtra("skills", v)
	}

	for _, key := range additionalJSONFields {
		v, ok := job[key]
		if !ok || v == nil {
			continue
		}
		if _, exists := rec.Extra[key]; exists {
			continue
		}
		rec.SetExtra(key, v)
	}

	applyLegacyAliases(&rec)
	return rec
}

// descriptionText prefers the selector-located container and falls back to
// the embedded description; both pass through the HTML cleaner.
func descriptionText(fields DetailFields, job map[string]any) string {
	if fields.DescriptionHTML != "" {
		return CleanHTML(fields.DescriptionHTML)
	}
	if d := jsonString(job, "description"); d != "" {
		return CleanHTML(d)
	}
	return ""
}

// postedAt resolves the posting time: detail-page relative text, then the
// card's relative text, then the card's machine-readable date, then the
// embedded listedAt epoch. Absent beats wrong, so a full miss stays empty.
func postedAt(fields DetailFields, meta crawler.ReferrerMeta, job map[string]any, now time.Time) string {
	if t, ok := ParseRelativeTime(fields.RelativeTime, now); ok {
		return t.Format(crawler.TimeLayout)
	}
	if t, ok := ParseRelativeTime(meta.RelativeTime, now); ok {
		return t.Format(crawler.TimeLayout)
	}
	if s := FormatTimestamp(meta.PostedAt, now); s != "" {
		return s
	}
	if v, ok := job["listedAt"]; ok {
		if s := FormatTimestamp(v, now); s != "" {
			return s
		}
	}
	return ""
}

// companyInfoName reads the company name out of a companyInfo island.
func companyInfoName(embedded map[string]any) string {
	for _, path := range []string{"data.companyInfo.name", "companyInfo.name"} {
		if v, ok := LookupPath(embedded, path); ok {
			if s, isString := v.(string); isString {
				return s
			}
		}
	}
	return ""
}

// Legacy alias table: id/job_id, title/job_title, companyName/company_name,
// link/job_url, descriptionText/job_description, postedAt/date_posted.
func applyLegacyAliases(rec *crawler.JobRecord) {
	syncPair(&rec.ID, &rec.LegacyJobID)
	syncPair(&rec.Title, &rec.LegacyTitle)
	syncPair(&rec.CompanyName, &rec.LegacyCompany)
	syncPair(&rec.Link, &rec.LegacyURL)
	syncPair(&rec.DescriptionText, &rec.LegacyDescription)
	syncPair(&rec.PostedAt, &rec.LegacyPostedAt)
}

// syncPair copies whichever side is populated onto the empty side.
func syncPair(a, b *string) {
	switch {
	case *a == "" && *b != "":
		*a = *b
	case *b == "" && *a != "":
		*b = *a
	}
}
