// GeoCampaign - Geofence Campaign Lifecycle and Event Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geocampaign

package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const (
	flagAllMonitored        = "flag:all_monitored"
	flagRegistrationEnabled = "flag:registration_enabled"
)

// Flags stores boolean markers.
type Flags struct {
	db *badger.DB

	// registrationDefault is returned when the registration flag was never written.
	registrationDefault bool
}

// NewFlags creates a flag store. registrationDefault is the push
// registration state assumed until SetRegistrationEnabled is first called.
func NewFlags(db *badger.DB, registrationDefault bool) *Flags {
	return &Flags{db: db, registrationDefault: registrationDefault}
}

// AllMonitored reports whether the last full recovery completed. It is false
// until the first recovery finishes.
func (f *Flags) AllMonitored(_ context.Context) (bool, error) {
	return f.get(flagAllMonitored, false)
}

// SetAllMonitored writes the recovery marker.
func (f *Flags) SetAllMonitored(_ context.Context, v bool) error {
	return f.set(flagAllMonitored, v)
}

// RegistrationEnabled reports whether event reports may be sent to the backend.
func (f *Flags) RegistrationEnabled(_ context.Context) (bool, error) {
	return f.get(flagRegistrationEnabled, f.registrationDefault)
}

// SetRegistrationEnabled toggles push registration.
func (f *Flags) SetRegistrationEnabled(_ context.Context, v bool) error {
	return f.set(flagRegistrationEnabled, v)
}

func (f *Flags) get(key string, def bool) (bool, error) {
	v := def
	err := f.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v = string(val) == "1"
			return nil
		})
	})
	if err != nil {
		return def, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (f *Flags) set(key string, v bool) error {
	val := []byte("0")
	if v {
		val = []byte("1")
	}
	if err := update(f.db, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	}); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
