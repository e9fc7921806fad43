/*
Package resilience provides a circuit breaker guarding webhook destinations.

A destination that keeps failing is short-circuited for a cool-down period so
a dead receiver does not tie up delivery workers on retries. Each webhook URL
gets its own breaker from a Set.

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                             Open

# Usage

	breakers := resilience.NewSet(resilience.Settings{Timeout: 30 * time.Second})
	err := breakers.Get(hook.URL).Execute(func() error {
		return deliver(ctx, hook, body)
	})
*/
package resilience
