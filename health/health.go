// Package health provides reusable health checks for provider runtimes.
//
// A provider runtime depends on an endpoint being reachable, the credential
// environment being populated, and (in test runs) mock mode being flagged.
// Each check returns a types.HealthStatus; Combine aggregates several checks
// into a single status for a readiness probe.
package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/modelkit-ai/sdk/types"
)

// MockSwitchVar is the environment variable that flags mock mode. When set
// to "true", provider calls are served by mock backends rather than real
// upstream APIs.
const MockSwitchVar = "MOCK_SWITCH"

// EndpointCheck verifies TCP reachability of a provider endpoint URL.
// The scheme's default port is used when the URL does not carry one.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	status := health.EndpointCheck(ctx, "https://my-resource.openai.azure.com")
//	if status.IsUnhealthy() {
//	    log.Println("endpoint unreachable")
//	}
func EndpointCheck(ctx context.Context, endpoint string) types.HealthStatus {
	if endpoint == "" {
		return types.NewUnhealthyStatus("endpoint cannot be empty", nil)
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("invalid endpoint URL %q", endpoint),
			map[string]any{"endpoint": endpoint},
		)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	address := net.JoinHostPort(host, port)
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("failed to connect to %s", address),
			map[string]any{
				"endpoint": endpoint,
				"address":  address,
				"error":    err.Error(),
			},
		)
	}
	conn.Close()

	return types.NewHealthyStatus(
		fmt.Sprintf("successfully connected to %s", address),
	)
}

// EnvCheck verifies that the named environment variables are present and
// non-empty. Provider runtimes use this to confirm their credential surface
// (API keys, base URLs) before accepting work.
//
// Example:
//
//	status := health.EnvCheck("OPENAI_API_KEY", "AZURE_OPENAI_API_BASE")
//	if status.IsUnhealthy() {
//	    log.Fatal("credential environment incomplete")
//	}
func EnvCheck(vars ...string) types.HealthStatus {
	if len(vars) == 0 {
		return types.NewHealthyStatus("no environment variables required")
	}

	var missing []string
	for _, name := range vars {
		if name == "" {
			continue
		}
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("%d required environment variable(s) missing", len(missing)),
			map[string]any{
				"required": len(vars),
				"missing":  missing,
			},
		)
	}

	return types.NewHealthyStatus(
		fmt.Sprintf("all %d required environment variable(s) set", len(vars)),
	)
}

// MockModeCheck reports whether the runtime is serving mock responses.
//
// Mock mode is not a failure, but a runtime answering from mocks should not
// look fully healthy to a deployment probe, so the check reports degraded
// when MOCK_SWITCH is "true" and healthy otherwise.
func MockModeCheck() types.HealthStatus {
	if os.Getenv(MockSwitchVar) == "true" {
		return types.NewDegradedStatus(
			"runtime is in mock mode",
			map[string]any{MockSwitchVar: "true"},
		)
	}

	return types.NewHealthyStatus("runtime is serving real providers")
}

// Combine aggregates multiple health checks into a single status.
// The result follows this priority:
//   - If any check is unhealthy, the result is unhealthy
//   - If any check is degraded (and none unhealthy), the result is degraded
//   - If all checks are healthy, the result is healthy
//
// Example:
//
//	status := health.Combine(
//	    health.EndpointCheck(ctx, os.Getenv("AZURE_OPENAI_API_BASE")),
//	    health.EnvCheck("AZURE_OPENAI_API_KEY"),
//	    health.MockModeCheck(),
//	)
func Combine(checks ...types.HealthStatus) types.HealthStatus {
	if len(checks) == 0 {
		return types.NewHealthyStatus("no checks provided")
	}

	var unhealthyChecks []string
	var degradedChecks []string
	var healthyCount int

	for _, check := range checks {
		switch check.Status {
		case types.StatusUnhealthy:
			msg := check.Message
			if msg == "" {
				msg = "unnamed check"
			}
			unhealthyChecks = append(unhealthyChecks, msg)
		case types.StatusDegraded:
			msg := check.Message
			if msg == "" {
				msg = "unnamed check"
			}
			degradedChecks = append(degradedChecks, msg)
		case types.StatusHealthy:
			healthyCount++
		}
	}

	if len(unhealthyChecks) > 0 {
		return types.NewUnhealthyStatus(
			fmt.Sprintf("%d check(s) failed", len(unhealthyChecks)),
			map[string]any{
				"total":         len(checks),
				"unhealthy":     len(unhealthyChecks),
				"degraded":      len(degradedChecks),
				"healthy":       healthyCount,
				"failed_checks": unhealthyChecks,
			},
		)
	}

	if len(degradedChecks) > 0 {
		return types.NewDegradedStatus(
			fmt.Sprintf("%d check(s) degraded", len(degradedChecks)),
			map[string]any{
				"total":           len(checks),
				"degraded":        len(degradedChecks),
				"healthy":         healthyCount,
				"degraded_checks": degradedChecks,
			},
		)
	}

	return types.NewHealthyStatus(
		fmt.Sprintf("all %d check(s) passed", len(checks)),
	)
}
