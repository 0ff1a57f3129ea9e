package gcp

import "testing"

func TestRegionalEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		service  string
		location string
		want     string
	}{
		{name: "global", service: "speech", location: "global", want: ""},
		{name: "empty", service: "speech", location: "", want: ""},
		{name: "regional", service: "speech", location: "asia-south1", want: "asia-south1-speech.googleapis.com:443"},
		{name: "trimmed", service: "speech", location: " us-central1 ", want: "us-central1-speech.googleapis.com:443"},
		{name: "no service", service: "", location: "asia-south1", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RegionalEndpoint(tt.service, tt.location); got != tt.want {
				t.Fatalf("RegionalEndpoint(%q, %q) = %q, want %q", tt.service, tt.location, got, tt.want)
			}
		})
	}
}

func TestClientOptionsRejectsMalformedCredentials(t *testing.T) {
	_, err := ClientOptions(ClientConfig{CredentialsJSON: "{not json", Service: "speech"})
	if err == nil {
		t.Fatal("expected error for malformed credentials")
	}
}
