package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const detailPageURL = "https://www.linkedin.com/jobs/view/4012345678"

const detailHTML = `<!DOCTYPE html>
<html><head>
<link rel="canonical" href="https://www.linkedin.com/jobs/view/4012345678">
</head><body>
<div class="top-card-layout__card">
  <img class="artdeco-entity-image" src="https://media.example.com/logo.png" alt="Acme">
  <h1 class="top-card-layout__title">Senior Go Engineer</h1>
  <a class="topcard__org-name-link" href="/company/acme-corp">Acme Corp</a>
  <span class="topcard__flavor--bullet">Berlin, Germany</span>
  <span class="posted-time-ago__text">3 days ago</span>
  <div class="job-details-jobs-unified-top-card__primary-description-container">
    <div><span class="tvm__text">Reposted 2 days ago</span></div>
    <span>Over 200 applicants</span>
  </div>
  <ul>
    <li class="job-details-jobs-unified-top-card__workplace-type">Hybrid</li>
    <li class="job-details-jobs-unified-top-card__job-insight">Employment type: Contract</li>
  </ul>
  <span class="jobs-unified-top-card__subtitle-secondary-grouping">
    <span class="jobs-unified-top-card__bullet">12 connections work here</span>
    <span class="jobs-unified-top-card__bullet">501-1,000 employees</span>
  </span>
  <button class="jobs-apply-button">Easy Apply</button>
</div>
<section>
  <div class="description__text description__text--rich">
    <p>Build crawlers in Go.</p>
    <ul>
      <li>Go</li>
      <li>PostgreSQL</li>
      <li>A skill description that is far too long to be treated as an actual skill keyword entry</li>
    </ul>
  </div>
</section>
<ul class="description__job-criteria-list">
  <li class="description__job-criteria-item">
    <h3 class="description__job-criteria-subheader">Seniority level</h3>
    <span class="description__job-criteria-text">Mid-Senior level</span>
  </li>
  <li class="description__job-criteria-item">
    <h3 class="description__job-criteria-subheader">Employment type</h3>
    <span class="description__job-criteria-text">Full-time</span>
  </li>
</ul>
<div class="company-description__text">Acme builds infrastructure.</div>
</body></html>`

func TestParseDetailFields(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, detailHTML)
	f := parseDetail(doc, detailPageURL)

	require.Equal(t, "Senior Go Engineer", f.Title)
	require.Equal(t, "Acme Corp", f.CompanyName)
	require.Equal(t, "Berlin, Germany", f.Location)
	require.Equal(t, "Reposted 2 days ago", f.RelativeTime, "the top-card time wins over the legacy posted-time span")
	require.Equal(t, "https://www.linkedin.com/company/acme-corp", f.CompanyLinkedinURL)
	require.Equal(t, "https://media.example.com/logo.png", f.CompanyLogo)
	require.Equal(t, "Acme builds infrastructure.", f.CompanyDescription)
	require.True(t, f.EasyApply)
	require.Empty(t, f.ApplyURL)
	require.Equal(t, "200", f.Applicants)
}

func TestParseDetailCriteriaBeatInsightRows(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, detailHTML)
	f := parseDetail(doc, detailPageURL)

	// The dedicated criteria list is parsed before the labeled insight rows.
	require.Equal(t, "Full-time", f.EmploymentType)
	require.Equal(t, "Mid-Senior level", f.SeniorityLevel)
}

func TestParseDetailInsightRowFallback(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<li class="job-details-jobs-unified-top-card__job-insight">Employment type: Contract</li>
<li class="job-details-jobs-unified-top-card__job-insight">Seniority level Director</li>
</body></html>`
	f := parseDetail(parseDoc(t, html), detailPageURL)

	require.Equal(t, "Contract", f.EmploymentType)
	require.Equal(t, "Director", f.SeniorityLevel)
}

func TestParseDetailSkillsFiltered(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, detailHTML)
	f := parseDetail(doc, detailPageURL)

	// Short description bullets double as skills; long prose is excluded.
	require.Equal(t, []string{"Go", "PostgreSQL"}, f.Skills)
}

func TestParseDetailWorkplaceAndInsights(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, detailHTML)
	f := parseDetail(doc, detailPageURL)

	require.Equal(t, []map[string]string{{"localizedName": "Hybrid"}}, f.WorkplaceTypes)
	require.Equal(t, []string{"12 connections work here"}, f.Insights, "only connection lines qualify")
}

func TestParseDetailDescriptionCleaned(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, detailHTML)
	f := parseDetail(doc, detailPageURL)

	require.Contains(t, f.DescriptionHTML, "Build crawlers in Go.")
	text := CleanHTML(f.DescriptionHTML)
	require.Contains(t, text, "Build crawlers in Go.")
	require.Contains(t, text, "• Go")
	require.NotContains(t, text, "<p>")
}

func TestParseDetailEmptyDocument(t *testing.T) {
	t.Parallel()

	f := parseDetail(parseDoc(t, "<html><body></body></html>"), detailPageURL)
	require.Empty(t, f.Title)
	require.Empty(t, f.Skills)
	require.False(t, f.EasyApply)
}
