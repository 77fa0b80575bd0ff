package wa

import (
	"context"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow"
)

func connectWithTimeout(ctx context.Context, client *whatsmeow.Client, timeout time.Duration) error {
	if client.IsConnected() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Connect()
	}()

	select {
	case <-ctx.Done():
		// Connect has no context; the caller tears the client down.
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// logoutClient works across whatsmeow versions whose Logout signature differs.
func logoutClient(ctx context.Context, client *whatsmeow.Client) error {
	type logoutWithCtx interface {
		Logout(context.Context) error
	}
	type logoutErr interface {
		Logout() error
	}

	if l, ok := any(client).(logoutWithCtx); ok {
		return l.Logout(ctx)
	}
	if l, ok := any(client).(logoutErr); ok {
		return l.Logout()
	}
	return fmt.Errorf("logout not supported")
}

func disconnectClient(client *whatsmeow.Client) {
	type disconnecter interface {
		Disconnect()
	}
	if d, ok := any(client).(disconnecter); ok {
		d.Disconnect()
	}
}
