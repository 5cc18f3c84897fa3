package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsweep/linkedin-crawler/internal/crawler"
)

// ParseListing enumerates job cards in document order and resolves the
// pagination link. pageURL anchors relative hrefs; page stamps each card's
// SourcePage. Cards keep document order so the frontier preserves discovery
// order.
func (e *Extractor) ParseListing(body []byte, pageURL string, page int) (*crawler.ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	out := &crawler.ListingPage{}
	if cards := findCards(doc); cards != nil {
		cards.Each(func(_ int, card *goquery.Selection) {
			if c, ok := parseCard(card, pageURL, page); ok {
				out.Cards = append(out.Cards, c)
			}
		})
	} else {
		// Every card variant missed: a markup change or a hostile page.
		// Scanning bare detail anchors degrades discovery to link-only
		// instead of zero results.
		out.UsedFallback = true
		out.Cards = fallbackCards(doc, pageURL, page)
	}

	if href, ok := doc.Find(nextPageSelector).First().Attr("href"); ok {
		out.NextPage = crawler.AbsoluteURL(pageURL, href)
	}
	return out, nil
}

// findCards tries the card selector variants in order.
func findCards(doc *goquery.Document) *goquery.Selection {
	for _, sel := range cardSelectors {
		if cards := doc.Find(sel); cards.Length() > 0 {
			return cards
		}
	}
	return nil
}

// parseCard reads one card. Cards without a usable detail link are dropped.
func parseCard(card *goquery.Selection, pageURL string, page int) (crawler.DetailTarget, bool) {
	href := firstAttr(card, cardLinkSelectors, "href")
	if href == "" {
		return crawler.DetailTarget{}, false
	}
	link := crawler.AbsoluteURL(pageURL, href)
	if link == "" {
		return crawler.DetailTarget{}, false
	}

	meta := crawler.ReferrerMeta{
		JobID:       matchURLID(link),
		Title:       firstText(card, cardTitleSelectors),
		CompanyName: firstText(card, cardCompanySelectors),
		Location:    firstText(card, cardLocationSelectors),
		SourcePage:  page,
	}

	timeEl := card.Find("time").First()
	if dt, ok := timeEl.Attr("datetime"); ok {
		meta.PostedAt = strings.TrimSpace(dt)
	}
	meta.RelativeTime = strings.TrimSpace(timeEl.Text())

	logo := card.Find(cardLogoSelector).First()
	if src, ok := logo.Attr("src"); ok && strings.TrimSpace(src) != "" {
		meta.CompanyLogo = strings.TrimSpace(src)
	} else if delayed, ok := logo.Attr("data-delayed-url"); ok {
		meta.CompanyLogo = strings.TrimSpace(delayed)
	}

	return crawler.DetailTarget{URL: link, Meta: meta}, true
}

// fallbackCards scans every detail anchor on the page, deduplicating by
// resolved link. Only the id survives as metadata.
func fallbackCards(doc *goquery.Document, pageURL string, page int) []crawler.DetailTarget {
	var cards []crawler.DetailTarget
	seen := make(map[string]struct{})
	doc.Find(fallbackLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		link := crawler.AbsoluteURL(pageURL, strings.TrimSpace(href))
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		cards = append(cards, crawler.DetailTarget{
			URL:  link,
			Meta: crawler.ReferrerMeta{JobID: matchURLID(link), SourcePage: page},
		})
	})
	return cards
}
