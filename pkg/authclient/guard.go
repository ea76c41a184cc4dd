package authclient

import (
	"context"
	"time"
)

const GuardTimeout = 5 * time.Second

// Guard reports whether the user may enter a protected command.
// A logged-in store passes at once. Otherwise it waits up to timeout for any in-flight
// interaction to finish and then reports the login state. Timing out counts as unauthenticated.
func Guard(ctx context.Context, store *Store, timeout time.Duration) bool {
	if store.State().LoggedIn {
		return true
	}
	if timeout <= 0 {
		timeout = GuardTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch, unsubscribe := store.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return false
		case st := <-ch:
			if !st.InteractionInProgress {
				return st.LoggedIn
			}
		}
	}
}
