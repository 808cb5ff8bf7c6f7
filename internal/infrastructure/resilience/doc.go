/*
Package resilience provides circuit breakers for page fetching.

A Breaker stops calling a failing host for a cooldown period. Hosts keeps
one breaker per host so a dead site does not slow down a run that visits
other sites.

# Usage

	hosts := resilience.NewHosts(resilience.Settings{
		Cooldown: 30 * time.Second,
		Trip:     resilience.ConsecutiveFailures(5),
	})

	body, err := resilience.Do(hosts.For(url), func() (string, error) {
		return fetch(ctx, url)
	})

# States

	Closed --[Trip]-> Open --[Cooldown]-> Half-Open --[Probes successes]-> Closed
	                                          |
	                                      [failure]
	                                          v
	                                        Open
*/
package resilience
