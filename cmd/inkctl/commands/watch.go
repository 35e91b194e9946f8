package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	watchHost     string
	watchEmail    string
	watchPassword string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live content changes from a running server",
	Long: `Connect to the change stream of a running server and print every
invalidation as it arrives. Signing in is optional.

Examples:
  inkctl watch --host localhost:8375
  inkctl watch --email alice@example.com --password secret123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := url.URL{Scheme: "ws", Host: watchHost, Path: "/api/ws/changes"}
		header := http.Header{}
		if watchEmail != "" {
			token, err := login(watchHost, watchEmail, watchPassword)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			header.Set("Authorization", "Bearer "+token)
		}

		c, resp, err := websocket.DefaultDialer.DialContext(cmd.Context(), u.String(), header)
		if err != nil {
			return fmt.Errorf("dial %s: %w", u.String(), err)
		}
		if resp != nil && resp.Body != nil {
			defer func() { _ = resp.Body.Close() }()
		}
		defer func() { _ = c.Close() }()

		go func() {
			<-cmd.Context().Done()
			_ = c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = c.Close()
		}()

		out := cmd.OutOrStdout()
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				if cmd.Context().Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return nil
				}
				return err
			}
			if jsonOutput {
				fmt.Fprintln(out, string(data))
				continue
			}
			var msg struct {
				Type  string              `json:"type"`
				Event notifications.Event `json:"event"`
			}
			if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "invalidate" {
				fmt.Fprintln(out, string(data))
				continue
			}
			e := msg.Event
			fmt.Fprintf(out, "%s  %-8s %-8s id=%s blog=%d\n",
				e.At.Format(time.RFC3339), e.Entity, e.Action, e.EntityID, e.BlogID)
		}
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchHost, "host", "localhost:8375", "API server host")
	f.StringVar(&watchEmail, "email", "", "Sign in as this user")
	f.StringVar(&watchPassword, "password", "", "Password for --email")
	rootCmd.AddCommand(watchCmd)
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s/api/auth/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result models.AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if !result.Success || result.Session == nil {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, result.Message)
	}
	return result.Session.Token, nil
}
