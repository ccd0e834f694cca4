package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	cardSelector        = "[data-event-id]"
	containerSelector   = "[data-mysideline-results], .search-results"
	embeddedDataElement = `script#mysideline-data`
)

func parseHTML(body []byte) ([]rawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Kind: KindUnrecognizedSchema, Detail: fmt.Sprintf("invalid html: %v", err)}
	}

	cards := doc.Find(cardSelector)
	if cards.Length() > 0 {
		events := make([]rawEvent, 0, cards.Length())
		cards.Each(func(_ int, card *goquery.Selection) {
			events = append(events, eventFromCard(card))
		})
		return events, nil
	}

	if script := doc.Find(embeddedDataElement).First(); script.Length() > 0 {
		data := bytes.TrimSpace([]byte(script.Text()))
		if len(data) == 0 {
			return []rawEvent{}, nil
		}
		return parseJSON(data)
	}

	if doc.Find(containerSelector).Length() > 0 {
		return []rawEvent{}, nil
	}

	return nil, &ParseError{Kind: KindUnrecognizedSchema, Detail: "no event cards, results container or embedded data"}
}

func eventFromCard(card *goquery.Selection) rawEvent {
	id, _ := card.Attr("data-event-id")

	ev := rawEvent{
		ID:          id,
		Title:       text(card, ".event-title"),
		Location:    text(card, ".event-location"),
		State:       text(card, ".event-state"),
		Description: text(card, ".event-description"),
	}

	if dt, ok := card.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		ev.Date = dt
	} else {
		ev.Date = text(card, ".event-date")
	}

	if href, ok := card.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
		ev.Email = href
	} else {
		ev.Email = text(card, ".event-email")
	}

	ev.RegistrationLink, _ = card.Find("a.event-register").First().Attr("href")
	ev.Logo, _ = card.Find("img.event-logo").First().Attr("src")

	return ev
}

func text(s *goquery.Selection, selector string) string {
	return s.Find(selector).First().Text()
}
