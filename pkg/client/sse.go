package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Event is one queue-scoped transition notification received over the
// events stream (§4.7). It mirrors the coordinator's SSE payload shape
// independently of the server's internal event type.
type Event struct {
	Seq       uint64                 `json:"seq"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	QueueID   string                 `json:"queue_id"`
	Data      map[string]interface{} `json:"data"`
}

// Events opens the queue's Server-Sent Events stream and returns a
// channel of decoded "event" frames. "connection" and "ping" frames are
// consumed internally and not forwarded. The channel closes when ctx is
// cancelled or the stream ends; callers should range over it rather
// than expect an explicit Close.
func (c *Client) Events(ctx context.Context) (<-chan *Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/queues/me/events", nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.SetBasicAuth(c.queueName, c.password)
	req.Header.Set("Accept", "text/event-stream")
	c.opts.applyHeaders(req)

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: connect events stream: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("client: events stream: unexpected status %d", resp.StatusCode)
	}

	events := make(chan *Event)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var eventType, data string

		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case line == "":
				if eventType == "event" && data != "" {
					var evt Event
					if err := json.Unmarshal([]byte(data), &evt); err == nil {
						select {
						case events <- &evt:
						case <-ctx.Done():
							return
						}
					}
				}
				eventType, data = "", ""
			case strings.HasPrefix(line, "event:"):
				eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()

	return events, nil
}
