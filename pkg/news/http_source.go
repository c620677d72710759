package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// HTTPSource reads a JSON array of news items from a feed URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a feed client for url.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch downloads the feed. Items without an id get a random one; items
// without a title or symbol are dropped.
func (s *HTTPSource) Fetch(ctx context.Context) ([]types.DerivativeNews, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news feed returned status: %d", resp.StatusCode)
	}

	var raw []types.DerivativeNews
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode news feed: %w", err)
	}

	items := make([]types.DerivativeNews, 0, len(raw))
	for _, item := range raw {
		if item.Title == "" || item.Symbol == "" {
			continue
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		items = append(items, item)
	}
	if dropped := len(raw) - len(items); dropped > 0 {
		log.Printf("⚠️  news: dropped %d items without title or symbol", dropped)
	}
	return items, nil
}
