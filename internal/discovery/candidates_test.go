package discovery

import (
	"reflect"
	"testing"
)

func TestBuildCandidatesOrderAndDedup(t *testing.T) {
	got := buildCandidates("192.168.1.42", DefaultFallbacks)
	want := []string{
		"192.168.1.42",
		"192.168.1.1",
		"192.168.1.254",
		"127.0.0.1",
		"10.0.2.2",
		"192.168.29.185",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildCandidatesWithoutLocalAddress(t *testing.T) {
	got := buildCandidates("", []string{"127.0.0.1"})
	want := []string{"127.0.0.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestBuildCandidatesDedupsOverlap(t *testing.T) {
	// A local address colliding with a fallback must appear once, in its
	// original position.
	got := buildCandidates("127.0.0.1", []string{"127.0.0.1", "10.0.2.2"})
	want := []string{"127.0.0.1", "127.0.0.254", "10.0.2.2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSubnetBase(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{"192.168.1.42", "192.168.1"},
		{"10.0.0.5", "10.0.0"},
		{"", ""},
		{"not-an-ip", ""},
		{"fe80::1", ""},
	}
	for _, tc := range cases {
		if got := subnetBase(tc.addr); got != tc.want {
			t.Fatalf("subnetBase(%q): expected %q, got %q", tc.addr, tc.want, got)
		}
	}
}
