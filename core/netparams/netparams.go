// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package netparams

import (
	"context"
	"sync"
	"time"

	"code.ingotprotocol.io/ingot/core/events"
	"code.ingotprotocol.io/ingot/libs/num"
	"code.ingotprotocol.io/ingot/logging"

	"github.com/pkg/errors"
)

var ErrUnknownKey = errors.New("unknown key")

// Broker - event bus.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.ingotprotocol.io/ingot/core/netparams Broker
type Broker interface {
	Send(e events.Event)
}

type value interface {
	Validate(value string) error
	Update(value string) error
	String() string
	ToDecimal() (num.Decimal, error)
	ToUint() (*num.Uint, error)
	ToDuration() (time.Duration, error)
}

type NetParamWatcher func(string, string)

type WatchParam struct {
	Param   string
	Watcher NetParamWatcher
}

type Store struct {
	log    *logging.Logger
	cfg    Config
	store  map[string]value
	mu     sync.RWMutex
	broker Broker

	watchers     map[string][]NetParamWatcher
	paramUpdates map[string]struct{}
}

func New(log *logging.Logger, cfg Config, broker Broker) *Store {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Store{
		log:          log,
		cfg:          cfg,
		store:        defaultNetParams(),
		broker:       broker,
		watchers:     map[string][]NetParamWatcher{},
		paramUpdates: map[string]struct{}{},
	}
}

// UponGenesis publishes the initial state of every parameter and applies
// the given overrides on top of the defaults.
func (s *Store) UponGenesis(ctx context.Context, overrides map[string]string) error {
	s.log.Debug("loading genesis configuration")

	// first send the initial state through the broker
	for k, v := range s.store {
		s.broker.Send(events.NewNetworkParameterEvent(ctx, k, v.String()))
	}

	for k, v := range overrides {
		if err := s.Update(ctx, k, v); err != nil {
			return errors.Wrap(err, k)
		}
	}

	return nil
}

// Watch a list of parameters updates.
func (s *Store) Watch(wp ...WatchParam) {
	for _, v := range wp {
		s.watchers[v.Param] = append(s.watchers[v.Param], v.Watcher)
	}
}

// OnChainTimeUpdate is triggered once per block, it sends parameter
// updates to the watchers.
func (s *Store) OnChainTimeUpdate(_ context.Context, _ time.Time) {
	if len(s.paramUpdates) <= 0 {
		return
	}
	for k := range s.paramUpdates {
		val, _ := s.Get(k)
		for _, w := range s.watchers[k] {
			w(k, val)
		}
	}
	s.paramUpdates = map[string]struct{}{}
}

// Validate will call validation on the value stored for the given key.
func (s *Store) Validate(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svalue, ok := s.store[key]
	if !ok {
		return ErrUnknownKey
	}
	return svalue.Validate(value)
}

// Update will update the stored value for a given key, it returns an
// error if the value does not pass validation.
func (s *Store) Update(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svalue, ok := s.store[key]
	if !ok {
		return ErrUnknownKey
	}

	if err := svalue.Update(value); err != nil {
		return err
	}

	// update was successful, notify watchers on the next tick
	s.paramUpdates[key] = struct{}{}
	s.broker.Send(events.NewNetworkParameterEvent(ctx, key, value))

	return nil
}

// Exists checks if a value exists for the given key.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.store[key]
	return ok
}

// Get a value associated to the given key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svalue, ok := s.store[key]
	if !ok {
		return "", ErrUnknownKey
	}
	return svalue.String(), nil
}

// GetDecimal a value associated to the given key.
func (s *Store) GetDecimal(key string) (num.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svalue, ok := s.store[key]
	if !ok {
		return num.DecimalZero(), ErrUnknownKey
	}
	return svalue.ToDecimal()
}

// GetUint a value associated to the given key.
func (s *Store) GetUint(key string) (*num.Uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svalue, ok := s.store[key]
	if !ok {
		return num.UintZero(), ErrUnknownKey
	}
	return svalue.ToUint()
}

// GetDuration a value associated to the given key.
func (s *Store) GetDuration(key string) (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svalue, ok := s.store[key]
	if !ok {
		return 0, ErrUnknownKey
	}
	return svalue.ToDuration()
}
