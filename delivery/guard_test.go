package delivery

import "testing"

func TestIsSelfForward(t *testing.T) {
	cases := []struct {
		name       string
		forwardURL string
		baseURL    string
		want       bool
	}{
		{
			name:       "matches hook token shape",
			forwardURL: "http://localhost:3030/deadbeefdeadbeefdeadbeef",
			baseURL:    "http://localhost:3030",
			want:       true,
		},
		{
			name:       "explicit default port differs from base port",
			forwardURL: "http://localhost:80/deadbeefdeadbeefdeadbeef",
			baseURL:    "http://localhost:3030",
			want:       false, // different port
		},
		{
			name:       "different host is fine",
			forwardURL: "https://upstream.example.com/deadbeefdeadbeefdeadbeef",
			baseURL:    "http://localhost:3030",
			want:       false,
		},
		{
			name:       "same host different path shape",
			forwardURL: "http://localhost:3030/not-a-hook-token",
			baseURL:    "http://localhost:3030",
			want:       false,
		},
		{
			name:       "same host root path",
			forwardURL: "http://localhost:3030/",
			baseURL:    "http://localhost:3030",
			want:       false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsSelfForward(tc.forwardURL, tc.baseURL)
			if got != tc.want {
				t.Fatalf("IsSelfForward(%q, %q) = %v, want %v", tc.forwardURL, tc.baseURL, got, tc.want)
			}
		})
	}
}

func TestIsSelfForwardDefaultPorts(t *testing.T) {
	if !IsSelfForward("https://relay.example.com:443/deadbeefdeadbeefdeadbeef", "https://relay.example.com/deadbeefdeadbeefdeadbeef") {
		t.Fatal("explicit :443 should match implicit https default port")
	}
}
