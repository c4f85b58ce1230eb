package browser

import (
	"fmt"
	"strings"

	"bulbfinder/harvester/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// ParseOptions extracts the <option> elements of a select's outer HTML in
// document order. An option without a value attribute takes its text as value.
func ParseOptions(html string) ([]domain.RawOption, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse select HTML: %w", err)
	}

	options := make([]domain.RawOption, 0)
	doc.Find("option").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		value, exists := s.Attr("value")
		if !exists {
			value = text
		}
		options = append(options, domain.RawOption{
			Value: strings.TrimSpace(value),
			Text:  text,
		})
	})

	return options, nil
}
