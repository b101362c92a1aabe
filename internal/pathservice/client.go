package pathservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campus-paths/internal/models"
)

// DefaultBaseURL is where the campus path-finding service listens by default
const DefaultBaseURL = "http://localhost:4567"

// maxErrorBody bounds how much of a failed response body is kept in errors
const maxErrorBody = 512

// Client talks to the external path-finding and building directory service
type Client interface {
	BuildingNames(ctx context.Context) (models.Directory, error)
	FindPath(ctx context.Context, start, end models.LocationCode) (models.Route, error)
}

// ErrRequestFailed is returned for transport errors, non-2xx responses and
// undecodable bodies
type ErrRequestFailed struct {
	Endpoint   string
	StatusCode int
	Reason     string
}

func (e *ErrRequestFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("request to %s failed: %s", e.Endpoint, e.Reason)
}

type httpClient struct {
	baseURL    string
	httpClient *http.Client
}

type pointResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type segmentResponse struct {
	Start *pointResponse `json:"start"`
	End   *pointResponse `json:"end"`
	Cost  float64        `json:"cost"`
}

type findPathResponse struct {
	Start *pointResponse    `json:"start"`
	Cost  float64           `json:"cost"`
	Path  []segmentResponse `json:"path"`
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *httpClient) BuildingNames(ctx context.Context) (models.Directory, error) {
	const endpoint = "/buildingNames"
	log.Printf("[PATHSERVICE] Request: endpoint=%s", endpoint)

	var names map[string]string
	if err := c.getJSON(ctx, endpoint, nil, &names); err != nil {
		return nil, err
	}

	dir := make(models.Directory, len(names))
	for code, name := range names {
		dir[models.LocationCode(code)] = name
	}

	log.Printf("[PATHSERVICE] Response: endpoint=%s buildings=%d", endpoint, len(dir))
	return dir, nil
}

func (c *httpClient) FindPath(ctx context.Context, start, end models.LocationCode) (models.Route, error) {
	const endpoint = "/findPath"
	query := url.Values{}
	query.Set("start", string(start))
	query.Set("end", string(end))
	log.Printf("[PATHSERVICE] Request: endpoint=%s start=%s end=%s", endpoint, start, end)

	var resp findPathResponse
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		return models.Route{}, err
	}

	route := toRoute(&resp)
	log.Printf("[PATHSERVICE] Response: endpoint=%s start=%s end=%s segments=%d cost=%.2f", endpoint, start, end, len(route.Segments), route.Cost)
	return route, nil
}

// toRoute converts the wire format. A segment missing either endpoint cannot
// be drawn and is skipped.
func toRoute(resp *findPathResponse) models.Route {
	route := models.Route{Present: true, Cost: resp.Cost}
	if resp.Start != nil {
		route.Start = &models.Point{X: resp.Start.X, Y: resp.Start.Y}
	}
	if resp.Path == nil {
		return route
	}

	route.Segments = make([]models.RouteSegment, 0, len(resp.Path))
	for i, seg := range resp.Path {
		if seg.Start == nil || seg.End == nil {
			log.Printf("[PATHSERVICE] Skipping incomplete segment: index=%d", i)
			continue
		}
		route.Segments = append(route.Segments, models.RouteSegment{
			Start: models.Point{X: seg.Start.X, Y: seg.Start.Y},
			End:   models.Point{X: seg.End.X, Y: seg.End.Y},
			Cost:  seg.Cost,
		})
	}
	return route
}

func (c *httpClient) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	queryURL := c.baseURL + endpoint
	if len(query) > 0 {
		queryURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create request: endpoint=%s err=%v", endpoint, err)
		return &ErrRequestFailed{Endpoint: endpoint, Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Path service request failed: endpoint=%s err=%v", endpoint, err)
		return &ErrRequestFailed{Endpoint: endpoint, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		log.Printf("[ERROR] Path service error: endpoint=%s status=%d body=%s", endpoint, resp.StatusCode, reason)
		return &ErrRequestFailed{Endpoint: endpoint, StatusCode: resp.StatusCode, Reason: reason}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("[ERROR] Failed to decode path service response: endpoint=%s err=%v", endpoint, err)
		return &ErrRequestFailed{Endpoint: endpoint, StatusCode: resp.StatusCode, Reason: "invalid response body: " + err.Error()}
	}

	return nil
}
