package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/dataplanectl/internal/dataplane"
)

type fileConfig struct {
	RuntimeID            string   `toml:"runtime_id"`
	ControlAPIURL        string   `toml:"control_api_url"`
	SelfUnregistration   bool     `toml:"self_unregistration"`
	DeregisterTimeout    string   `toml:"deregister_timeout"`
	ListenAddr           string   `toml:"listen_addr"`
	HeartbeatInterval    string   `toml:"heartbeat_interval"`
	CORSOrigins          []string `toml:"cors_origins"`
	SourceTypes          []string `toml:"source_types"`
	SinkTypes            []string `toml:"sink_types"`
	PullDestinationTypes []string `toml:"pull_destination_types"`
	SelectorBackend      string   `toml:"selector_backend"`
	ConsulAddress        string   `toml:"consul_address"`
	ConsulService        string   `toml:"consul_service"`
	ConsulToken          string   `toml:"consul_token"`
}

func loadServiceConfig(path string) (dataplane.ServiceConfig, error) {
	cfg := dataplane.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return dataplane.ServiceConfig{}, fmt.Errorf("load dataplane config: %w", err)
	}

	if meta.IsDefined("runtime_id") {
		cfg.RuntimeID = strings.TrimSpace(raw.RuntimeID)
	}

	if meta.IsDefined("control_api_url") {
		cfg.ControlAPIURL = strings.TrimSpace(raw.ControlAPIURL)
	}

	if meta.IsDefined("self_unregistration") {
		cfg.SelfUnregistration = raw.SelfUnregistration
	}

	if meta.IsDefined("deregister_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DeregisterTimeout))
		if err != nil {
			return dataplane.ServiceConfig{}, fmt.Errorf("parse deregister_timeout: %w", err)
		}
		cfg.DeregisterTimeout = d
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}

	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return dataplane.ServiceConfig{}, fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins)
	}

	if meta.IsDefined("source_types") {
		cfg.Capabilities.Sources = normalizeList(raw.SourceTypes)
	}

	if meta.IsDefined("sink_types") {
		cfg.Capabilities.Sinks = normalizeList(raw.SinkTypes)
	}

	if meta.IsDefined("pull_destination_types") {
		cfg.Capabilities.Pulls = normalizeList(raw.PullDestinationTypes)
	}

	if meta.IsDefined("selector_backend") {
		cfg.Selector.Backend = dataplane.SelectorBackend(strings.ToLower(strings.TrimSpace(raw.SelectorBackend)))
	}

	if meta.IsDefined("consul_address") {
		cfg.Selector.Consul.Address = strings.TrimSpace(raw.ConsulAddress)
	}

	if meta.IsDefined("consul_service") {
		cfg.Selector.Consul.Service = strings.TrimSpace(raw.ConsulService)
	}

	if meta.IsDefined("consul_token") {
		cfg.Selector.Consul.Token = strings.TrimSpace(raw.ConsulToken)
	}

	return cfg, nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
