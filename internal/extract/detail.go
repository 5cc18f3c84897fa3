package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// DetailFields is the candidate bag a detail document yields through
// selectors alone. Embedded-JSON candidates ride separately; the reconciler
// merges the two. Zero values mean the field was absent, which is normal.
type DetailFields struct {
	Title              string
	CompanyName        string
	Location           string
	DescriptionHTML    string
	RelativeTime       string
	EmploymentType     string
	SeniorityLevel     string
	WorkplaceTypes     []map[string]string
	Insights           []string
	Skills             []string
	ApplyURL           string
	EasyApply          bool
	CompanyLinkedinURL string
	CompanyLogo        string
	CompanyDescription string
	Applicants         string
}

// parseDetail runs every selector variant against the document. Missing
// fields stay zero; nothing here fails the page.
func parseDetail(doc *goquery.Document, pageURL string) DetailFields {
	root := doc.Selection
	f := DetailFields{
		Title:        firstText(root, detailTitleSelectors),
		CompanyName:  firstText(root, detailCompanySelectors),
		Location:     firstText(root, detailLocationSelectors),
		RelativeTime: firstText(root, detailPostedSelectors),
	}

	for _, sel := range detailDescriptionSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if html, err := goquery.OuterHtml(node); err == nil && strings.TrimSpace(html) != "" {
			f.DescriptionHTML = html
			break
		}
	}

	parseCriteria(doc, &f)
	parseInsightItems(doc, &f)

	doc.Find(workplaceTypeSelector).Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			f.WorkplaceTypes = append(f.WorkplaceTypes, map[string]string{"localizedName": text})
		}
	})

	doc.Find(connectionInsightSelector).Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if text != "" && strings.Contains(strings.ToLower(text), "connection") {
			f.Insights = append(f.Insights, text)
		}
	})

	doc.Find(skillsSelector).Each(func(_ int, el *goquery.Selection) {
		if len(f.Skills) >= maxSkills {
			return
		}
		s := strings.TrimSpace(el.Text())
		if s != "" && utf8.RuneCountInString(s) < 50 {
			f.Skills = append(f.Skills, s)
		}
	})

	if href, ok := doc.Find(applyLinkSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		f.ApplyURL = strings.TrimSpace(href)
	}
	f.EasyApply = doc.Find(easyApplySelector).Length() > 0

	if href, ok := doc.Find(companyLinkSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		f.CompanyLinkedinURL = crawler.AbsoluteURL(pageURL, strings.TrimSpace(href))
	}
	if src, ok := doc.Find(detailCompanyLogoSelector).First().Attr("src"); ok {
		f.CompanyLogo = strings.TrimSpace(src)
	}
	f.CompanyDescription = strings.TrimSpace(doc.Find(companyDescSelector).First().Text())

	if block := doc.Find(primaryDescBlockSelector).First(); block.Length() > 0 {
		if m := reApplicants.FindStringSubmatch(block.Text()); m != nil {
			f.Applicants = m[1]
		}
	}

	return f
}

// parseCriteria fills employment type and seniority from the dedicated
// criteria list.
func parseCriteria(doc *goquery.Document, f *DetailFields) {
	doc.Find(criteriaItemSelector).Each(func(_ int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find(criteriaHeaderSelector).Text())
		value := strings.TrimSpace(item.Find(criteriaValueSelector).Text())
		if name == "" || value == "" {
			return
		}
		switch {
		case strings.Contains(name, "Seniority") && f.SeniorityLevel == "":
			f.SeniorityLevel = value
		case strings.Contains(name, "Employment") && f.EmploymentType == "":
			f.EmploymentType = value
		}
	})
}

// parseInsightItems covers the page generation that folds employment type
// and seniority into labeled top-card insight rows.
func parseInsightItems(doc *goquery.Document, f *DetailFields) {
	doc.Find(insightItemSelector).Each(func(_ int, item *goquery.Selection) {
		text := CleanText(item.Text())
		switch {
		case strings.Contains(text, "Employment type") && f.EmploymentType == "":
			f.EmploymentType = stripLabel(text, "Employment type")
		case strings.Contains(text, "Seniority level") && f.SeniorityLevel == "":
			f.SeniorityLevel = stripLabel(text, "Seniority level")
		}
	})
}

// stripLabel removes a field label and its separator from labeled text.
func stripLabel(text, label string) string {
	text = strings.Replace(text, label, "", 1)
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, ":")
	return strings.TrimSpace(text)
}
