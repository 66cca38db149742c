package crawl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/govcrawl/core"
	"go.uber.org/zap"
)

// DefaultCollInfoURL lists the available Common Crawl indexes, newest first.
const DefaultCollInfoURL = "https://index.commoncrawl.org/collinfo.json"

// collection is one entry of collinfo.json.
type collection struct {
	ID     string `json:"id"`
	CDXAPI string `json:"cdx-api"`
}

// cdxRecord is one NDJSON line of a CDX query with fl=url.
type cdxRecord struct {
	URL string `json:"url"`
}

// CommonCrawlSource looks an origin's domain up in the latest Common Crawl
// CDX index.
type CommonCrawlSource struct {
	client      *http.Client
	userAgent   string
	collInfoURL string
	maxURLs     int
	logger      *zap.Logger
}

// NewCommonCrawlSource creates a CommonCrawlSource. An empty collInfoURL
// uses DefaultCollInfoURL.
func NewCommonCrawlSource(client *http.Client, userAgent, collInfoURL string, maxURLs int, logger *zap.Logger) *CommonCrawlSource {
	if collInfoURL == "" {
		collInfoURL = DefaultCollInfoURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommonCrawlSource{
		client:      client,
		userAgent:   userAgent,
		collInfoURL: collInfoURL,
		maxURLs:     maxURLs,
		logger:      logger,
	}
}

// Name implements Source.
func (c *CommonCrawlSource) Name() string { return SourceCommonCrawl }

// Discover returns captured URLs for the origin's domain and its subdomains.
func (c *CommonCrawlSource) Discover(ctx context.Context, origin core.Origin) ([]string, error) {
	domain := BaseDomain(origin.URL)
	if domain == "" {
		return nil, fmt.Errorf("origin %s has no host", origin.Name)
	}

	api, err := c.latestIndex(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("url", domain)
	q.Set("matchType", "domain")
	q.Set("output", "json")
	q.Set("fl", "url")
	if c.maxURLs > 0 {
		q.Set("limit", strconv.Itoa(c.maxURLs))
	}

	resp, err := c.get(ctx, api+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The CDX server answers 404 when the domain has no captures.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cdx query returned %d", resp.StatusCode)
	}

	var urls []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec cdxRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			c.logger.Debug("skipping malformed cdx line", zap.Error(err))
			continue
		}
		if rec.URL != "" {
			urls = append(urls, rec.URL)
		}
		if c.maxURLs > 0 && len(urls) >= c.maxURLs {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return urls, fmt.Errorf("reading cdx response: %w", err)
	}
	return urls, nil
}

// latestIndex returns the CDX API endpoint of the newest collection.
func (c *CommonCrawlSource) latestIndex(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, c.collInfoURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("collinfo returned %d", resp.StatusCode)
	}

	var colls []collection
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&colls); err != nil {
		return "", fmt.Errorf("decoding collinfo: %w", err)
	}
	if len(colls) == 0 || colls[0].CDXAPI == "" {
		return "", fmt.Errorf("collinfo lists no index")
	}
	c.logger.Debug("using common crawl index", zap.String("index", colls[0].ID))
	return colls[0].CDXAPI, nil
}

func (c *CommonCrawlSource) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	return resp, nil
}
