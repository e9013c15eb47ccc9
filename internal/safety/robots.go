package safety

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// ErrRobotsDisallowed marks URLs excluded by the site's robots.txt.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// RobotsChecker answers robots.txt queries, caching one parsed file per host.
// A robots.txt that cannot be fetched or parsed allows everything.
type RobotsChecker struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{client: client, userAgent: userAgent, cache: map[string]*robotstxt.RobotsData{}}
}

// Check returns ErrRobotsDisallowed when u may not be fetched by the checker's agent.
func (r *RobotsChecker) Check(ctx context.Context, u *url.URL) error {
	data := r.lookup(ctx, u)
	if data == nil {
		return nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if !data.TestAgent(path, r.userAgent) {
		return ErrRobotsDisallowed
	}
	return nil
}

func (r *RobotsChecker) lookup(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	data, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return data
	}

	data = r.fetch(ctx, key+"/robots.txt")
	// Fetch failures are not cached so a transient error does not stick for the run.
	if data != nil {
		r.mu.Lock()
		r.cache[key] = data
		r.mu.Unlock()
	}
	return data
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}
