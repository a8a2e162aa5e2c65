package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

var (
	ErrSourceBadStatus   = errors.New("catalog source bad status")
	ErrSourceUnavailable = errors.New("catalog source unavailable")
)

// Source supplies the product collection the store is loaded from.
type Source interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// HTTPSource fetches the catalog document from a fixed URL, the service-side
// equivalent of the storefront pulling products.json at session start.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 3 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrSourceUnavailable
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, ErrSourceUnavailable
		}
		return nil, ErrSourceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrSourceBadStatus, resp.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, err
	}
	return products, nil
}
