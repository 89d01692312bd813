package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	bookingPath = "/travel/flights/booking"
	tokenMarker = "tfs="
)

var (
	rawToken      = regexp.MustCompile(`^[\w-]+$`)
	embeddedToken = regexp.MustCompile(`tfs=([\w-]+)`)
	embeddedPath  = regexp.MustCompile(`(?:https?://[^\s'"]+)?/travel/flights/booking[^\s'"]*`)

	anchorDataAttrs = []string{"data-url", "data-href", "data-tfs"}
	actionAttrs     = []string{"onclick", "action", "formaction"}
)

type linkStrategy func(item *goquery.Selection) string

// deepLink tries each recovery strategy in order and returns the first hit,
// or "" when the item carries no booking link at all.
func (g *GoogleFlights) deepLink(item *goquery.Selection) string {
	strategies := []linkStrategy{
		g.linkFromHref,
		g.linkFromAnchorData,
		g.linkFromEmbeddedToken,
		g.linkFromAction,
	}
	for _, strategy := range strategies {
		if link := strategy(item); link != "" {
			return link
		}
	}
	return ""
}

func (g *GoogleFlights) linkFromHref(item *goquery.Selection) string {
	var link string
	item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := a.AttrOr("href", "")
		if strings.Contains(href, bookingPath) || strings.Contains(href, tokenMarker) {
			link = g.absolute(href)
		}
		return link == ""
	})
	return link
}

func (g *GoogleFlights) linkFromAnchorData(item *goquery.Selection) string {
	var link string
	item.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		for _, attr := range anchorDataAttrs {
			value := strings.TrimSpace(a.AttrOr(attr, ""))
			if value == "" {
				continue
			}
			if strings.Contains(value, bookingPath) || strings.Contains(value, tokenMarker) {
				link = g.absolute(value)
			} else if rawToken.MatchString(value) {
				link = g.urls.BookingURL(value, "")
			}
			if link != "" {
				return false
			}
		}
		return true
	})
	return link
}

func (g *GoogleFlights) linkFromEmbeddedToken(item *goquery.Selection) string {
	var link string
	item.Find("*").AddSelection(item).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		for _, n := range el.Nodes {
			for _, attr := range n.Attr {
				if !strings.HasPrefix(attr.Key, "data-") && attr.Key != "jsdata" {
					continue
				}
				if match := embeddedToken.FindStringSubmatch(attr.Val); match != nil {
					link = g.urls.BookingURL(match[1], "")
					return false
				}
			}
		}
		return true
	})
	return link
}

func (g *GoogleFlights) linkFromAction(item *goquery.Selection) string {
	var link string
	item.Find("*").AddSelection(item).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		for _, attr := range actionAttrs {
			value, ok := el.Attr(attr)
			if !ok {
				continue
			}
			if match := embeddedPath.FindString(value); match != "" {
				link = g.absolute(match)
				return false
			}
		}
		return true
	})
	return link
}

// absolute resolves ref against the booking base URL. Unparseable references
// are dropped.
func (g *GoogleFlights) absolute(ref string) string {
	ref = strings.TrimSpace(ref)
	base, err := url.Parse(g.urls.BookingURL("", ""))
	if err != nil {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !u.IsAbs() && !strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "?") {
		// a bare query fragment such as "tfs=abc&hl=en"
		if strings.HasPrefix(ref, tokenMarker) {
			u, err = url.Parse("?" + ref)
			if err != nil {
				return ""
			}
		}
	}
	return base.ResolveReference(u).String()
}
