package interpreter

import (
	"context"
	"net/url"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	maxRetries     = 10
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second
	// The API sends a demand reading at least this often
	readTimeout = 2 * time.Minute
)

func ListenerURL(host string, tlsEnabled bool) url.URL {
	scheme := "ws"
	if tlsEnabled {
		scheme = "wss"
	}
	return url.URL{Scheme: scheme, Host: host, Path: "/ws"}
}

// StartListener manages the websocket connection to emu_api and calls
// funcToCall for each entity update until ctx is done or retries run out.
func StartListener(ctx context.Context, u url.URL, funcToCall func(update *types.EntityUpdate)) {
	retryCount := 0

	for {
		if ctx.Err() != nil {
			return
		}

		// Calculate retry delay with exponential backoff
		if retryCount > 0 {
			retryDelay := min(time.Duration(1<<retryCount)*baseRetryDelay, maxRetryDelay)
			log.Info().Msgf("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, maxRetries)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
		}

		log.Info().Str("url", u.String()).Msg("Connecting")

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			log.Warn().Err(err).Msg("Connection failed")
			retryCount++
			if retryCount >= maxRetries {
				log.Error().Msgf("Max retries (%d) reached. Giving up.", maxRetries)
				return
			}
			continue
		}

		log.Info().Msg("Connected! Accepting entity updates.")
		retryCount = 0

		connectionBroken := handleConnection(ctx, c, funcToCall)
		c.Close()

		if !connectionBroken {
			// Clean shutdown requested
			return
		}
		log.Warn().Msg("Connection lost, will retry...")
	}
}

func handleConnection(ctx context.Context, c *websocket.Conn, funcToCall func(update *types.EntityUpdate)) bool {
	done := make(chan struct{})

	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Msg("WebSocket error")
				} else {
					log.Info().Err(err).Msg("Connection closed")
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(readTimeout))

			if messageType != websocket.TextMessage {
				log.Debug().Int("type", messageType).Msg("Received unexpected message type")
				continue
			}
			if update := types.EntityUpdateFromJsonBytes(message); update != nil {
				funcToCall(update)
			} else {
				log.Warn().Bytes("message", message).Msg("Failed to parse entity update")
			}
		}
	}()

	// Keep the connection alive
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Msg("Failed to send ping")
			}
		case <-ctx.Done():
			log.Info().Msg("Shutting down, closing connection...")
			err := c.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			if err != nil {
				log.Warn().Err(err).Msg("Error sending close message")
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
