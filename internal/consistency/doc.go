// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

/*
Package consistency keeps the monitored region set in line with the stored
campaigns after events that may have desynchronized them.

# Events

System events arrive through POST /api/v1/system-events or from the
controller's own alarms:

  - monitoring_enabled, time_changed, boot_completed, refresh_alarm and
    monitor_data_cleared run a full recovery;
  - expire_alarm runs the lighter expire pass.

Submit only records the event and wakes the worker. Pending events collapse:
any number of queued full-recovery events run one full recovery, which also
subsumes a pending expire pass. monitor_data_cleared for another package is
refused with ErrPackageMismatch.

# Full Recovery

 1. Clear the all-monitored flag and unregister every area
 2. Register the valid areas of every eligible campaign, each id once
 3. Re-arm the start alarm (earliest future start) and the expiry alarm
    (earliest future expiry)
 4. Set the all-monitored flag

An area id shared by several campaigns is registered with the latest expiry
among the eligible campaigns using it; a campaign without expiry keeps it
registered indefinitely. When the capability is unavailable the pass is a
logged no-op and the flag stays false. A capacity overflow stops
registration without failing the pass.

# Usage

	registry := monitor.NewRegistry(cfg.Monitor.Capacity)
	ctrl := consistency.NewController(registry, signalingStore, flags, cfg.Monitor.PackageName)
	tree.AddProcessingService(ctrl)

	_ = ctrl.Submit(consistency.Event{Kind: consistency.EventBootCompleted})

OnMessageStored covers the message-arrival path: a newly stored signaling
message with an eligible campaign is registered immediately and the alarms
are re-armed without waiting for a full recovery.
*/
package consistency
