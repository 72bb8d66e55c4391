package syncgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groupslot/groupslot/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrNotFound   = errors.New("schedule not found")
	ErrValidation = errors.New("request rejected")
)

// ServerError is any non-success response that is neither a validation
// failure nor a missing schedule.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("schedule service returned %d", e.Status)
	}
	return fmt.Sprintf("schedule service returned %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (Schedule, error) {
	var out Schedule
	err := c.do(ctx, http.MethodPost, "/schedules", req, &out)
	return out, err
}

func (c *Client) GetSchedule(ctx context.Context, scheduleUUID string) (Schedule, error) {
	if _, err := uuid.Parse(scheduleUUID); err != nil {
		return Schedule{}, ErrNotFound
	}
	var out Schedule
	err := c.do(ctx, http.MethodGet, "/schedules/"+url.PathEscape(scheduleUUID), nil, &out)
	return out, err
}

func (c *Client) FetchScheduleWithAvailabilities(ctx context.Context, scheduleUUID string) (ScheduleWithAvailabilities, error) {
	if _, err := uuid.Parse(scheduleUUID); err != nil {
		return ScheduleWithAvailabilities{}, ErrNotFound
	}
	var out ScheduleWithAvailabilities
	err := c.do(ctx, http.MethodGet, "/schedules/"+url.PathEscape(scheduleUUID)+"/with-availabilities", nil, &out)
	return out, err
}

func (c *Client) SubmitAvailability(ctx context.Context, req SubmitAvailabilityRequest) (Availability, error) {
	var out Availability
	err := c.do(ctx, http.MethodPost, "/availabilities", req, &out)
	return out, err
}

func (c *Client) DeleteParticipant(ctx context.Context, scheduleUUID string, participantID int64) error {
	path := "/availabilities/" + strconv.FormatInt(participantID, 10) + "?schedule_uuid=" + url.QueryEscape(scheduleUUID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id := httpx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return classify(resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func classify(status int, body string) error {
	switch status {
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusConflict:
		if body == "" {
			return ErrValidation
		}
		return fmt.Errorf("%w: %s", ErrValidation, body)
	default:
		return &ServerError{Status: status, Body: body}
	}
}
