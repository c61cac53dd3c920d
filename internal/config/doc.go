// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

// Package config loads and validates service configuration.
//
// Configuration is layered with Koanf v2: defaults from defaultConfig, then an
// optional YAML file (CONFIG_PATH, config.yaml, /etc/geocampaign/config.yaml),
// then environment variables. Only variables listed in the mapping table are
// read, for example:
//
//	HTTP_PORT            server.port
//	WAL_PATH             storage.path
//	WAL_DRAIN_LIMIT      storage.drain_limit
//	BACKEND_URL          backend.url (required)
//	DEVICE_ID            backend.device_id (required)
//	RETRY_MAX_ATTEMPTS   retry.max_attempts
//	DELIVERY_TIME_ZONE   geofence.delivery_time_zone
//	MONITOR_CAPACITY     monitor.capacity
//
// Example YAML:
//
//	backend:
//	  url: https://campaigns.example.com
//	  device_id: 8d1c5e0a
//	retry:
//	  max_attempts: 5
//	geofence:
//	  delivery_time_zone: Europe/Stockholm
package config
