
package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

// Decode converts body to UTF-8 using the declared or sniffed charset.
func (p *Parser) Decode(body []byte, contentType string) []byte {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	utf8data, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		// fallback: keep the raw bytes if they are already utf-8
		if utf8.Valid(body) {
			return body
		}
		return bytes.ToValidUTF8(body, []byte("�"))
	}
	return utf8data
}

// Document parses an already decoded body as HTML. Any byte sequence yields a
// document; non-HTML bodies simply have no elements of interest.
func (p *Parser) Document(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// MetaContent harvests the document title and every named meta tag with
// non-blank content. Later tags with the same name win.
func (p *Parser) MetaContent(doc *goquery.Document) map[string]string {
	meta := map[string]string{}
	if doc == nil {
		return meta
	}

	if t := doc.Find("title").First(); t.Length() > 0 {
		if title := strings.TrimSpace(t.Text()); title != "" {
			meta["title"] = title
		}
	}

	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		meta[name] = content
	})
	return meta
}
