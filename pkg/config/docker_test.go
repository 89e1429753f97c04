package config

import (
	"testing"
)

func TestResolveHostForDocker_RemoteHostsUnchanged(t *testing.T) {
	// These hosts are never rewritten, whether or not the tests run in a container.
	for _, host := range []string{"db.example.com", "192.168.1.100", "host.docker.internal", ""} {
		if got := ResolveHostForDocker(host); got != host {
			t.Errorf("ResolveHostForDocker(%q) = %q, want unchanged", host, got)
		}
	}
}

func TestResolveHostForDocker_Loopback(t *testing.T) {
	for _, host := range []string{"localhost", "127.0.0.1", "::1"} {
		got := ResolveHostForDocker(host)
		if IsRunningInDocker() {
			if got != "host.docker.internal" {
				t.Errorf("ResolveHostForDocker(%q) in Docker = %q, want host.docker.internal", host, got)
			}
		} else if got != host {
			t.Errorf("ResolveHostForDocker(%q) outside Docker = %q, want %q", host, got, host)
		}
	}
}
