package memory

import (
	"context"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/m-mizutani/goerr/v2"
)

// maxPageBody caps how much of a web page is read
const maxPageBody = 8 << 20

// content is the loaded text of a source before chunking
type content struct {
	Name string
	Text string
}

// loadPDF extracts text from all pages of a PDF file
func loadPDF(path string) (*content, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open PDF", goerr.V("path", path))
	}
	defer doc.Close()

	var pages []string
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract page text",
				goerr.V("path", path), goerr.V("page", n))
		}
		pages = append(pages, text)
	}

	return &content{
		Name: path,
		Text: strings.Join(pages, "\n"),
	}, nil
}

// loadWebPage fetches a web page and reduces it to plain text
func loadWebPage(ctx context.Context, client *http.Client, url string) (*content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch web page", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status from web page",
			goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read web page", goerr.V("url", url))
	}

	raw := string(body)
	name := extractTitle(raw)
	if name == "" {
		name = url
	}

	return &content{
		Name: name,
		Text: stripHTML(raw),
	}, nil
}

var (
	htmlTitle    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlScript   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlStyle    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTags     = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`[ \t]+`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

func extractTitle(raw string) string {
	m := htmlTitle.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// stripHTML converts an HTML document to plain text
func stripHTML(raw string) string {
	text := htmlComments.ReplaceAllString(raw, "")
	text = htmlScript.ReplaceAllString(text, "")
	text = htmlStyle.ReplaceAllString(text, "")
	text = htmlTags.ReplaceAllString(text, "\n")
	text = html.UnescapeString(text)
	text = whitespace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
