package metrics

import "time"

// RecordHealthCheck records one health check execution.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	count(HealthCheckTotal, labels{"check": checkName, "status": outcome(healthy, "healthy", "unhealthy")})
	observe(HealthCheckDuration, duration, labels{"check": checkName})
}

// SetServerStartTime records when serve started, as a Unix timestamp.
func SetServerStartTime(timestamp int64) {
	set(ServerStartTime, float64(timestamp), nil)
}

// SetServerUptime records the server uptime in seconds.
func SetServerUptime(seconds int64) {
	set(ServerUptime, float64(seconds), nil)
}
