/*
Package resilience provides the circuit breaker guarding outbound calls to the
registry and to agent-card hosts.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

A breaker never retries. It only refuses calls while a dependency is known to
be failing, so that a dead registry surfaces as a fast error instead of a
pile of hung requests.

# Usage

	breaker := resilience.New("ledger", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})

	resp, err := resilience.Do(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})
*/
package resilience
