package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"spendwise/internal/notifier"
)

// ErrStreamClosed is returned by Subscribe when the server ends the stream.
var ErrStreamClosed = errors.New("event stream closed by server")

// Subscribe opens the push channel and calls handler for every event, in
// arrival order, until ctx is cancelled (nil is returned) or the stream
// fails. The first event is always "connected".
func (c *Client) Subscribe(ctx context.Context, handler func(notifier.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("opening event stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opening event stream: %w", &APIError{StatusCode: resp.StatusCode})
	}

	err = readEvents(bufio.NewReader(resp.Body), handler)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// readEvents parses a text/event-stream body. Comment lines are keep-alives.
func readEvents(r *bufio.Reader, handler func(notifier.Event)) error {
	var name string
	var data []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return ErrStreamClosed
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if name != "" || len(data) > 0 {
				if name == "" {
					name = "message"
				}
				handler(notifier.Event{Name: name, Data: []byte(strings.Join(data, "\n"))})
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
