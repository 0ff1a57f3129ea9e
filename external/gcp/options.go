package gcp

import (
	"fmt"
	"strings"

	"cloud.google.com/go/auth/credentials"
	"google.golang.org/api/option"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	apiEndpointPort    = 443
)

type ClientConfig struct {
	CredentialsJSON string
	// Service is the API host prefix, e.g. "speech" or "texttospeech".
	Service string
	// Location selects a regional endpoint; "" and "global" use the default host.
	Location string
}

// ClientOptions resolves credentials and builds the options shared by all Google Cloud clients.
func ClientOptions(cfg ClientConfig) ([]option.ClientOption, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(cfg.CredentialsJSON),
		Scopes:          []string{cloudPlatformScope},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if endpoint := RegionalEndpoint(cfg.Service, cfg.Location); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts, nil
}

func RegionalEndpoint(service, location string) string {
	location = strings.TrimSpace(location)
	if service == "" || location == "" || location == "global" {
		return ""
	}
	return fmt.Sprintf("%s-%s.googleapis.com:%d", location, service, apiEndpointPort)
}
