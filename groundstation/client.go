// Package groundstation is an HTTP client for the remote GroundTrack
// ground-station service: satellite listing, status polling, and
// radio-audio streaming/upload.
package groundstation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cwsl/echoflare/obsmetrics"
)

// Error wraps a non-2xx or malformed GroundTrack HTTP response, or a
// transport-level failure.
type Error struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("groundstation: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("groundstation: %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// Client talks to a GroundTrack-compatible ground-station HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Metrics, if set, records every request's outcome. A nil Metrics
	// is a no-op, so it's safe to leave unset.
	Metrics *obsmetrics.Metrics
}

// New returns a Client pointed at baseURL, using requestTimeout as the
// per-request HTTP timeout.
func New(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, op, method, path string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), nil)
	if err != nil {
		c.Metrics.ObserveGroundstationRequest(op, 0)
		return nil, nil, &Error{Op: op, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Metrics.ObserveGroundstationRequest(op, 0)
		return nil, nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.Metrics.ObserveGroundstationRequest(op, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, &Error{Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, body, &Error{Op: op, Status: resp.StatusCode, Body: string(body)}
	}
	return resp, body, nil
}

// ListSatellites returns the names of satellites the ground station
// knows about.
func (c *Client) ListSatellites(ctx context.Context) ([]string, error) {
	_, body, err := c.do(ctx, "list satellites", http.MethodGet, "/satellites")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, &Error{Op: "list satellites", Err: fmt.Errorf("decode response: %w", err)}
	}
	return names, nil
}

// Status is the remote satellite status: a heterogeneous key-value
// record whose fields are optional and loosely typed, plus typed
// accessors that tolerate missing or malformed entries.
type Status struct {
	Raw map[string]any
}

func (s Status) float(key string) (float64, bool) {
	v, ok := s.Raw[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ElevationDeg returns the status's elevation_deg field, if present
// and numeric.
func (s Status) ElevationDeg() (float64, bool) { return s.float("elevation_deg") }

// DownlinkMHz returns the status's downlink_mhz field, if present and
// numeric.
func (s Status) DownlinkMHz() (float64, bool) { return s.float("downlink_mhz") }

// DopplerHz returns the status's doppler_hz field, if present and
// numeric.
func (s Status) DopplerHz() (float64, bool) { return s.float("doppler_hz") }

// GetStatus polls the satellite's current status.
func (c *Client) GetStatus(ctx context.Context, satellite string) (*Status, error) {
	path := "/status/" + url.PathEscape(satellite)
	_, body, err := c.do(ctx, "get status", http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Op: "get status", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &Status{Raw: raw}, nil
}

// WaitForElevation polls GetStatus on a 1-second interval until the
// satellite's elevation clears minElevationDeg, or ctx/timeout
// expires.
func (c *Client) WaitForElevation(ctx context.Context, satellite string, minElevationDeg float64, timeout time.Duration) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastErr error
	for {
		st, err := c.GetStatus(ctx, satellite)
		if err != nil {
			lastErr = err
		} else if el, ok := st.ElevationDeg(); ok && el >= minElevationDeg {
			return st, nil
		}

		select {
		case <-ctx.Done():
			return nil, &Error{Op: "wait for elevation", Err: fmt.Errorf("timed out waiting for elevation >= %.1f deg (last error: %v): %w", minElevationDeg, lastErr, ctx.Err())}
		case <-ticker.C:
		}
	}
}

// UploadRadioWAV multipart-POSTs a WAV file to the satellite's radio
// endpoint, returning the response body text on any 2xx status.
func (c *Client) UploadRadioWAV(ctx context.Context, satellite, path string) (string, error) {
	body, contentType, err := encodeMultipartFile(path)
	if err != nil {
		return "", &Error{Op: "upload radio wav", Err: err}
	}

	reqURL := c.url("/radio?sat=" + url.QueryEscape(satellite))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return "", &Error{Op: "upload radio wav", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Metrics.ObserveGroundstationRequest("upload radio wav", 0)
		return "", &Error{Op: "upload radio wav", Err: err}
	}
	defer resp.Body.Close()
	c.Metrics.ObserveGroundstationRequest("upload radio wav", resp.StatusCode)

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Op: "upload radio wav", Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Op: "upload radio wav", Status: resp.StatusCode, Body: string(text)}
	}
	log.Printf("[GROUNDSTATION] upload %s -> HTTP %d", path, resp.StatusCode)
	return string(text), nil
}
