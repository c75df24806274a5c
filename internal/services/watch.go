package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
	"github.com/gorilla/websocket"
)

// SnapshotFunc receives each snapshot pushed by the server.
type SnapshotFunc func(models.Snapshot)

// WebSocketURL returns the subscriber endpoint derived from the API base URL.
func (a *APIService) WebSocketURL() (string, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url: %v", shared.ErrInvalidConfig, err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Watch subscribes to snapshot pushes and calls fn for each one until ctx is canceled or the connection drops.
//
// Returns nil when ctx is canceled or the server closes the stream normally.
func (a *APIService) Watch(ctx context.Context, fn SnapshotFunc) error {
	endpoint, err := a.WebSocketURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: websocket dial: %v", shared.ErrAPIRequest, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: websocket read: %v", shared.ErrAPIRequest, err)
		}

		var snap models.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("%w: malformed snapshot: %v", shared.ErrAPIRequest, err)
		}
		fn(snap)
	}
}
