// Package tedee provides a Go client library for the Tedee smart-lock
// cloud API.
//
// The library covers lock enumeration, lock state synchronization,
// open/close/pull-spring commands with operation polling, and device
// activity history.
//
// # Authentication
//
// Tedee uses an OAuth2 password grant. The client acquires a bearer token
// on first use, caches it, and refreshes it automatically when it is
// within two minutes of expiry. Concurrent callers share a single
// refresh.
//
//	client, err := tedee.NewClient(tedee.Credentials{
//	    Username: "user@example.com",
//	    Password: "secret",
//	    ClientID: "client-id",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Basic Usage
//
// List all locks:
//
//	locks, err := client.GetLocks(ctx)
//	for _, lock := range locks {
//	    fmt.Printf("Lock: %s (%d)\n", lock.Name, lock.ID)
//	}
//
// Open a lock and wait for the operation to complete:
//
//	lock, err := client.GetLockByName(ctx, "Front Door")
//	op, err := client.Open(ctx, lock.ID)
//
// Open, Close, and PullSpring block until the server-side operation
// reports Completed, polling its status at a fixed interval.
//
// # Retry Configuration
//
// Every API call is retried a bounded number of times with a fixed delay
// between attempts. Token acquisition and resource calls carry separate
// retry settings:
//
//	client, err := tedee.NewClient(creds,
//	    tedee.WithRetry(&tedee.RetryConfig{MaxAttempts: 5, Interval: 2 * time.Second}),
//	    tedee.WithTokenRetry(tedee.DefaultTokenRetryConfig()),
//	)
//
// # Error Handling
//
// Check for specific error types:
//
//	sync, err := client.SyncLock(ctx, lockID)
//	if err != nil {
//	    if tedee.IsUnauthorized(err) {
//	        // Credentials rejected
//	    } else if tedee.IsNotFound(err) {
//	        // Lock doesn't exist
//	    }
//	}
//
// For more information, see https://docs.tedee.com/
package tedee
