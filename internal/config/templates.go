// Package config holds starter config files for the node binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrConfigExists = errors.New("config: file already exists")

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "dataplane":
		return dataplaneTemplate, nil
	case "dataplane-consul":
		return dataplaneConsulTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const dataplaneTemplate = `control_api_url = "http://localhost:8181/control"
self_unregistration = false
deregister_timeout = "5s"
listen_addr = ":8181"
heartbeat_interval = "30s"
cors_origins = ["http://localhost:3000"]

source_types = ["HttpData"]
sink_types = ["HttpData"]
pull_destination_types = ["HttpData"]

selector_backend = "memory"
`

const dataplaneConsulTemplate = `control_api_url = "http://localhost:8181/control"
self_unregistration = true
deregister_timeout = "5s"
listen_addr = ":8181"
heartbeat_interval = "30s"

source_types = ["HttpData", "AmazonS3"]
sink_types = ["AmazonS3"]
pull_destination_types = ["HttpData"]

selector_backend = "consul"
consul_address = "127.0.0.1:8500"
consul_service = "dataplane"
`
