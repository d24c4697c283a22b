package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/model"
)

// Fetcher downloads shop pages to prefill hotspot metadata.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Limiter   *HostLimiter
}

// FetchProduct fetches a product page and extracts its metadata.
func (f *Fetcher) FetchProduct(ctx context.Context, rawURL string) (model.Product, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.Product{}, fmt.Errorf("invalid product URL %q", rawURL)
	}

	if err := f.Limiter.Wait(ctx, u.Host); err != nil {
		return model.Product{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return model.Product{}, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return model.Product{}, fmt.Errorf("fetching product page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return model.Product{}, fmt.Errorf("product page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return model.Product{}, fmt.Errorf("parsing product HTML: %w", err)
	}

	p := ParseProduct(doc, resp.Request.URL.String())
	klog.V(1).Infof("product %q from %s", p.Title, p.URL)
	return p, nil
}

// ParseProduct extracts product metadata from a page. schema.org JSON-LD
// wins, then OpenGraph and product: meta tags, then the document title.
func ParseProduct(doc *goquery.Document, pageURL string) model.Product {
	p := model.Product{URL: pageURL}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := decodeJSONLD(s.Text())
		if !ok {
			return true
		}
		node, ok := findProduct(v)
		if !ok {
			return true
		}
		p.Title = text(node["name"])
		p.Brand = text(node["brand"])
		p.Image = text(node["image"])
		if o := offer(node); o != nil {
			p.Price = text(o["price"])
			if p.Price == "" {
				p.Price = text(o["lowPrice"])
			}
			p.Currency = text(o["priceCurrency"])
		}
		if u := text(node["url"]); u != "" {
			p.URL = resolve(pageURL, u)
		}
		return false
	})

	fill := func(dst *string, props ...string) {
		for _, prop := range props {
			if *dst != "" {
				return
			}
			*dst = meta(doc, prop)
		}
	}
	fill(&p.Title, "og:title", "twitter:title")
	fill(&p.Brand, "product:brand", "og:brand", "og:site_name")
	fill(&p.Price, "product:price:amount", "og:price:amount")
	fill(&p.Currency, "product:price:currency", "og:price:currency")
	fill(&p.Image, "og:image", "twitter:image")
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if p.Image != "" {
		p.Image = resolve(pageURL, p.Image)
	}
	return p
}

// meta reads a <meta property=...> or <meta name=...> tag.
func meta(doc *goquery.Document, prop string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// DisplayPrice joins amount and currency the way hotspot prices are shown.
func DisplayPrice(p model.Product) string {
	if p.Price == "" {
		return ""
	}
	if p.Currency == "" {
		return p.Price
	}
	return p.Price + " " + p.Currency
}
