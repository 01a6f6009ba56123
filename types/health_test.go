package types

import "testing"

func TestHealthStatusPredicates(t *testing.T) {
	tests := []struct {
		name      string
		status    HealthStatus
		healthy   bool
		degraded  bool
		unhealthy bool
	}{
		{
			name:    "healthy",
			status:  NewHealthyStatus("endpoint reachable"),
			healthy: true,
		},
		{
			name:     "degraded",
			status:   NewDegradedStatus("mock mode enabled", map[string]any{"mock": true}),
			degraded: true,
		},
		{
			name:      "unhealthy",
			status:    NewUnhealthyStatus("endpoint unreachable", nil),
			unhealthy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsHealthy(); got != tt.healthy {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.healthy)
			}
			if got := tt.status.IsDegraded(); got != tt.degraded {
				t.Errorf("IsDegraded() = %v, want %v", got, tt.degraded)
			}
			if got := tt.status.IsUnhealthy(); got != tt.unhealthy {
				t.Errorf("IsUnhealthy() = %v, want %v", got, tt.unhealthy)
			}
		})
	}
}

func TestNewStatusConstructors(t *testing.T) {
	h := NewHealthyStatus("ok")
	if h.Status != StatusHealthy || h.Message != "ok" {
		t.Errorf("unexpected healthy status: %+v", h)
	}

	d := NewDegradedStatus("slow", map[string]any{"latency_ms": 900})
	if d.Status != StatusDegraded || d.Details["latency_ms"] != 900 {
		t.Errorf("unexpected degraded status: %+v", d)
	}

	u := NewUnhealthyStatus("down", map[string]any{"endpoint": "localhost:8080"})
	if u.Status != StatusUnhealthy || u.Details["endpoint"] != "localhost:8080" {
		t.Errorf("unexpected unhealthy status: %+v", u)
	}
}
