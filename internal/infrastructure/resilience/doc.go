/*
Package resilience provides a circuit breaker for calls to remote services.

# Overview

The repository client wraps every request in a breaker so a failing server
is not hammered with retries. Only failures chosen by IsSuccessful count
against the breaker; client errors such as a missing resource do not.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Automatic state transitions
- Pluggable success classification
- State change callbacks for monitoring
- Generic Do helper for calls returning a value

# Usage

	// Create a circuit breaker
	breaker := resilience.New("service", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
	})

	// Execute request through breaker
	resp, err := resilience.Do(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
