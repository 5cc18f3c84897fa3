package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector variant tables. The first variant per field is the markup served
// to authenticated sessions, the rest are the guest and legacy generations.
// First match wins.

// Listing page.
var (
	cardSelectors = []string{
		"div.base-card",
		"li.jobs-search-results__list-item",
		"div.job-search-card",
	}
	cardLinkSelectors = []string{
		"a.base-card__full-link",
		"a[href*='/jobs/view/']",
	}
	cardTitleSelectors = []string{
		"h3.base-search-card__title",
		"h3.job-search-card__title",
	}
	cardCompanySelectors = []string{
		"h4.base-search-card__subtitle a",
		"span.job-search-card__company-name",
	}
	cardLocationSelectors = []string{
		"span.job-search-card__location",
	}
)

const (
	cardLogoSelector     = "img.artdeco-entity-image"
	fallbackLinkSelector = "a[href*='/jobs/view/']"
	nextPageSelector     = "a.artdeco-pagination__button--next"
)

// Detail page.
var (
	detailTitleSelectors = []string{
		"h1.job-details-jobs-unified-top-card__job-title",
		"h1.top-card-layout__title",
	}
	detailCompanySelectors = []string{
		"a.job-details-jobs-unified-top-card__company-name",
		"a.topcard__org-name-link",
	}
	detailLocationSelectors = []string{
		"span.job-details-jobs-unified-top-card__bullet",
		"span.topcard__flavor--bullet",
	}
	detailDescriptionSelectors = []string{
		"div.job-details-jobs-unified-description__container",
		"div.description__text",
	}
	detailPostedSelectors = []string{
		"div.job-details-jobs-unified-top-card__primary-description-container div span.tvm__text",
		"span.posted-time-ago__text",
	}
)

const (
	criteriaItemSelector       = "li.description__job-criteria-item"
	criteriaHeaderSelector     = "h3.description__job-criteria-subheader"
	criteriaValueSelector      = "span.description__job-criteria-text"
	insightItemSelector        = "li.job-details-jobs-unified-top-card__job-insight"
	workplaceTypeSelector      = "li.job-details-jobs-unified-top-card__workplace-type"
	connectionInsightSelector  = "span.jobs-unified-top-card__subtitle-secondary-grouping span.jobs-unified-top-card__bullet"
	skillsSelector             = "div.description__text ul li"
	applyLinkSelector          = "a.apply-button"
	easyApplySelector          = "button.jobs-apply-button"
	companyLinkSelector        = "a.topcard__org-name-link"
	companyDescSelector        = "div.company-description__text"
	primaryDescBlockSelector   = "div.job-details-jobs-unified-top-card__primary-description-container"
	detailCompanyLogoSelector  = "img.artdeco-entity-image"
	canonicalLinkSelector      = `link[rel='canonical']`
)

// reApplicants pulls the applicant count out of the primary description
// block ("Over 200 applicants", "34 applicants").
var reApplicants = regexp.MustCompile(`(\d+)\s+applicants?`)

// maxSkills caps the skill list pulled from description bullets.
const maxSkills = 10

// firstText returns the trimmed text of the first variant that matches a
// node with content.
func firstText(root *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if s := strings.TrimSpace(root.Find(sel).First().Text()); s != "" {
			return s
		}
	}
	return ""
}

// firstAttr returns the named attribute from the first variant carrying it.
func firstAttr(root *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := root.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
