package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/cognicore/meiyo/internal/htmltext"
)

// CaseDoc is one scraped page, ready for dictionary curation.
type CaseDoc struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags"`
	FetchedAt time.Time `json:"fetched_at"`
}

const userAgent = "meiyo-scrape-cases/1.0"

func main() {
	var (
		urlsPath = flag.String("urls", "", "File with one URL per line (required)")
		outPath  = flag.String("out", "testdata/cases.jsonl", "Output JSONL file")
		delay    = flag.Duration("delay", time.Second, "Pause between requests")
		timeout  = flag.Duration("timeout", 30*time.Second, "Per-request timeout")
	)
	flag.Parse()

	if *urlsPath == "" {
		log.Fatal("--urls required")
	}

	f, err := os.Open(*urlsPath)
	if err != nil {
		log.Fatal("Failed to open URL list:", err)
	}
	urls, err := readURLs(f)
	f.Close()
	if err != nil {
		log.Fatal("Failed to read URL list:", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("Failed to create output file:", err)
	}
	defer out.Close()

	log.Printf("Fetching %d pages...", len(urls))

	client := &http.Client{Timeout: *timeout}
	encoder := json.NewEncoder(out)
	ctx := context.Background()
	saved := 0

	for i, u := range urls {
		doc, err := fetchCase(ctx, client, u)
		if err != nil {
			log.Printf("Failed to fetch %s: %v", u, err)
			continue
		}
		if doc.Text == "" {
			log.Printf("Skipping %s: no text", u)
			continue
		}

		if err := encoder.Encode(doc); err != nil {
			log.Printf("Failed to encode doc: %v", err)
			continue
		}
		saved++

		if (i+1)%10 == 0 {
			log.Printf("Fetched %d/%d pages...", i+1, len(urls))
		}

		// Be nice to the servers
		if i < len(urls)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Saved %d pages to %s", saved, *outPath)
}

// readURLs returns the non-blank, non-comment lines of r.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

// fetchCase downloads a page, decodes it to UTF-8 from whatever charset the
// server or the markup declares, and extracts its text.
func fetchCase(ctx context.Context, client *http.Client, url string) (CaseDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CaseDoc{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return CaseDoc{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CaseDoc{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return CaseDoc{}, fmt.Errorf("decode charset: %w", err)
	}
	page, err := htmltext.Parse(body)
	if err != nil {
		return CaseDoc{}, fmt.Errorf("parse html: %w", err)
	}

	return CaseDoc{
		URL:       url,
		Title:     page.Title,
		Text:      page.Text,
		Tags:      tagCase(page.Title + "\n" + page.Text),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// tagCase labels a page by the offences it mentions.
func tagCase(text string) []string {
	var tags []string
	if containsAny(text, "名誉毀損", "名誉棄損", "名誉を毀損") {
		tags = append(tags, "defamation")
	}
	if containsAny(text, "侮辱") {
		tags = append(tags, "insults")
	}
	if containsAny(text, "脅迫", "強要") {
		tags = append(tags, "threats")
	}
	if containsAny(text, "業務妨害") {
		tags = append(tags, "obstruction")
	}
	if containsAny(text, "人権侵害", "差別", "ハラスメント") {
		tags = append(tags, "harassment")
	}
	if len(tags) == 0 {
		tags = append(tags, "other")
	}
	return tags
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
