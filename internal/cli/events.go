package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/moonfall/internal/api/response"
	"github.com/mcoot/moonfall/internal/model"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read the game's event log",
	}

	cmd.AddCommand(newEventsListCmd())
	cmd.AddCommand(newEventsStreamCmd())

	return cmd
}

func newEventsListCmd() *cobra.Command {
	var (
		after int64
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the events you can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			path := gamePath(code, "/events?after=", strconv.FormatInt(after, 10))
			if limit > 0 {
				path += "&limit=" + strconv.Itoa(limit)
			}

			var result response.EventsResponse
			if err := client.Get(path, &result); err != nil {
				return err
			}

			if cfg.Output == "json" {
				NewOutput(cfg.Output).Print(result)
				return nil
			}
			for _, e := range result.Events {
				printEvent(os.Stdout, e, false)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&after, "after", 0, "Only events after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events")

	return cmd
}

func newEventsStreamCmd() *cobra.Command {
	var (
		after  int64
		useWS  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream events in real time",
		Long: `Connect to the game's event stream and print events as they happen.
Events you missed since --after are sent first.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := cfg.Code(nil)
			if err != nil {
				return err
			}

			// Set up cancellation
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			asJSON = asJSON || cfg.Output == "json"
			if useWS {
				return streamWebSocket(ctx, code, after, asJSON)
			}
			return streamSSE(ctx, code, after, asJSON)
		},
	}

	cmd.Flags().Int64Var(&after, "after", 0, "Replay events after this sequence number")
	cmd.Flags().BoolVar(&useWS, "ws", false, "Use the WebSocket stream instead of SSE")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output events as JSON lines")

	return cmd
}

func streamSSE(ctx context.Context, code string, after int64, asJSON bool) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + gamePath(code, "/stream")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	if after > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatInt(after, 10))
	}

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if !asJSON {
		fmt.Printf("Connected to game %s\n", code)
	}

	err = readSSE(resp.Body, func(name, data string) {
		var e model.Event
		if err := json.Unmarshal([]byte(data), &e); err != nil || e.Seq == 0 {
			return // connected and other control messages
		}
		printEvent(os.Stdout, e, asJSON)
	})
	// Context cancellation is expected
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	if !asJSON {
		fmt.Println("Disconnected")
	}
	return nil
}

// readSSE parses a server-sent event stream and calls fn for each event
func readSSE(r io.Reader, fn func(name, data string)) error {
	scanner := bufio.NewScanner(r)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				fn(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}
	return scanner.Err()
}

func streamWebSocket(ctx context.Context, code string, after int64, asJSON bool) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + gamePath(code, "/ws")
	url = "ws" + strings.TrimPrefix(url, "http")
	if after > 0 {
		url += "?after=" + strconv.FormatInt(after, 10)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if !asJSON {
		fmt.Printf("Connected to game %s\n", code)
	}
	for {
		var e model.Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				if !asJSON {
					fmt.Println("Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		printEvent(os.Stdout, e, asJSON)
	}
}

func printEvent(w io.Writer, e model.Event, asJSON bool) {
	if asJSON {
		data, _ := json.Marshal(e)
		fmt.Fprintln(w, string(data))
		return
	}

	timestamp := e.CreatedAt.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	payload := ""
	if len(e.Payload) > 0 {
		data, _ := json.Marshal(e.Payload)
		payload = string(data)
		if len(payload) > 100 {
			payload = payload[:100] + "..."
		}
	}
	actor := ""
	if e.Actor != "" {
		actor = " by " + string(e.Actor)
	}
	fmt.Fprintf(w, "[%s] #%d %s%s %s\n", timestamp, e.Seq, e.Type, actor, payload)
}
