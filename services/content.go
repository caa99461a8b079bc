package services

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"academy-dashboard/utils"

	"github.com/gofiber/fiber/v2"
)

// contentCacheTTL bounds how stale served day content can be.
const contentCacheTTL = 5 * time.Minute

type cachedContent struct {
	body      string
	fetchedAt time.Time
}

// ContentService fetches day content from the configured GitHub repository.
// The cache is process-local with no cross-instance consistency guarantee —
// two instances may briefly serve different revisions.
type ContentService struct {
	repo   string // "owner/name"
	ref    string
	token  string
	client *http.Client

	mu    sync.Mutex
	cache map[int]cachedContent
	ttl   time.Duration
}

func NewContentService() *ContentService {
	ref := os.Getenv("CONTENT_REF")
	if ref == "" {
		ref = "main"
	}
	return &ContentService{
		repo:   os.Getenv("CONTENT_REPO"),
		ref:    ref,
		token:  os.Getenv("CONTENT_TOKEN"),
		client: utils.HTTPClient,
		cache:  make(map[int]cachedContent),
		ttl:    contentCacheTTL,
	}
}

// DayContent returns the markdown for one program day, served from cache
// within the TTL.
func (s *ContentService) DayContent(day int) (string, error) {
	if s.repo == "" {
		return "", fmt.Errorf("CONTENT_REPO not configured")
	}

	s.mu.Lock()
	if entry, ok := s.cache[day]; ok && time.Since(entry.fetchedAt) < s.ttl {
		s.mu.Unlock()
		return entry.body, nil
	}
	s.mu.Unlock()

	url := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/content/day-%d.md", s.repo, s.ref, day)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("content fetch failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("content source returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[day] = cachedContent{body: string(body), fetchedAt: time.Now()}
	s.mu.Unlock()
	return string(body), nil
}

// HandleDayContent serves GET /api/content/day/:id.
func (s *ContentService) HandleDayContent(c *fiber.Ctx) error {
	day, err := strconv.Atoi(c.Params("id"))
	if err != nil || day < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day must be a positive integer", "field": "id"})
	}

	body, err := s.DayContent(day)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(fiber.Map{"day": day, "content": body})
}
