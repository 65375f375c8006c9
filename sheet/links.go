package sheet

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/examshot/models"
)

// ReadLinks reads a link list and numbers its links from start. Every row
// carries topic as its explicit topic; pass "" to take topics from the URLs.
//
// .html/.htm files contribute the absolute http(s) targets of their anchors
// in document order, each once. Any other file is read as plain text with
// one URL per line; blank lines and lines starting with '#' are ignored.
func ReadLinks(path string, start int, topic string) ([]models.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewError(models.ErrCodeInput, "failed to open link list "+path, err)
	}
	defer f.Close()

	var links []sourceLink
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		links, err = htmlLinks(f)
	default:
		links, err = textLinks(f)
	}
	if err != nil {
		return nil, models.NewError(models.ErrCodeInput, "failed to read link list "+path, err)
	}

	rows := make([]models.Row, 0, len(links))
	for i, l := range links {
		number := strconv.Itoa(start + i)
		rows = append(rows, models.Row{
			Line:   l.line,
			Number: number,
			Link:   l.url,
			Topic:  topic,
			Fields: map[string]string{ColNumber: number, ColLink: l.url, ColTopic: topic},
		})
	}
	return rows, nil
}

type sourceLink struct {
	line int
	url  string
}

func textLinks(r io.Reader) ([]sourceLink, error) {
	var links []sourceLink
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		links = append(links, sourceLink{line: line, url: s})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return links, nil
}

func htmlLinks(r io.Reader) ([]sourceLink, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []sourceLink
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, sourceLink{line: len(links) + 1, url: href})
	})
	return links, nil
}
