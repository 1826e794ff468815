// Package session keeps the live data of the signed in user and swaps all of
// it when the user changes.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"mileage/auth"
	dbt "mileage/db/db"
	"mileage/repository"
)

// State is what a client renders. Slices are never shared with the Manager.
type State struct {
	User            *auth.Identity  `json:"user"`
	Vehicles        []dbt.Vehicle   `json:"vehicles"`
	Trips           []dbt.Trip      `json:"trips"`
	Currencies      []dbt.Currency  `json:"currencies"`
	FuelPrices      []dbt.FuelPrice `json:"fuelPrices"`
	DefaultCurrency *dbt.Currency   `json:"defaultCurrency"`
}

func (s State) clone() State {
	c := s
	c.Vehicles = slices.Clone(s.Vehicles)
	c.Trips = slices.Clone(s.Trips)
	c.Currencies = slices.Clone(s.Currencies)
	c.FuelPrices = slices.Clone(s.FuelPrices)
	if s.DefaultCurrency != nil {
		d := *s.DefaultCurrency
		c.DefaultCurrency = &d
	}
	return c
}

type Manager struct {
	repo *repository.Repository

	// switching serializes SignIn and SignOut
	switching sync.Mutex
	cancel    context.CancelFunc
	observers sync.WaitGroup

	mu        sync.RWMutex
	state     State
	gen       uint64
	listeners map[int]func(State)
	nextID    int
}

func NewManager(repo *repository.Repository) *Manager {
	return &Manager{
		repo:      repo,
		listeners: make(map[int]func(State)),
	}
}

// SignIn stops the observations of the previous user and starts vehicles,
// trips, currencies and fuel prices for id.
func (m *Manager) SignIn(id *auth.Identity) error {
	if id == nil || id.ID == "" {
		m.SignOut()
		return fmt.Errorf("sign in without user id")
	}
	m.switching.Lock()
	defer m.switching.Unlock()

	m.stop()
	gen := m.reset(&auth.Identity{ID: id.ID, Email: id.Email, Providers: slices.Clone(id.Providers)})

	ctx, cancel := context.WithCancel(context.Background())
	if err := m.start(ctx, gen, id.ID); err != nil {
		cancel()
		m.observers.Wait()
		m.reset(nil)
		return err
	}
	m.cancel = cancel
	return nil
}

// SignOut stops every observation and clears the state.
func (m *Manager) SignOut() {
	m.switching.Lock()
	defer m.switching.Unlock()
	m.stop()
	m.reset(nil)
}

func (m *Manager) Close() {
	m.SignOut()
}

func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// OnChange registers fn for every later state change. The returned func
// unregisters it.
func (m *Manager) OnChange(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.observers.Wait()
}

func (m *Manager) reset(user *auth.Identity) uint64 {
	m.mu.Lock()
	m.gen++
	m.state = State{User: user}
	gen := m.gen
	m.mu.Unlock()
	m.notify()
	return gen
}

func (m *Manager) start(ctx context.Context, gen uint64, userID string) error {
	vehicles, err := m.repo.ObserveVehicles(ctx, userID)
	if err != nil {
		return err
	}
	follow(m, gen, vehicles, func(s *State, v []dbt.Vehicle) { s.Vehicles = v })

	trips, err := m.repo.ObserveTrips(ctx, userID)
	if err != nil {
		return err
	}
	follow(m, gen, trips, func(s *State, v []dbt.Trip) { s.Trips = v })

	currencies, err := m.repo.ObserveCurrencies(ctx)
	if err != nil {
		return err
	}
	follow(m, gen, currencies, func(s *State, v []dbt.Currency) {
		s.Currencies = v
		s.DefaultCurrency = nil
		for i := range v {
			if v[i].IsDefault {
				d := v[i]
				s.DefaultCurrency = &d
				break
			}
		}
	})

	prices, err := m.repo.ObserveActiveFuelPrices(ctx)
	if err != nil {
		return err
	}
	follow(m, gen, prices, func(s *State, v []dbt.FuelPrice) { s.FuelPrices = v })
	return nil
}

// follow applies every emission of stream until it closes. Emissions that
// arrive after the user changed are dropped.
func follow[T any](m *Manager, gen uint64, stream <-chan T, apply func(*State, T)) {
	m.observers.Add(1)
	go func() {
		defer m.observers.Done()
		for v := range stream {
			m.mu.Lock()
			if m.gen != gen {
				m.mu.Unlock()
				continue
			}
			apply(&m.state, v)
			m.mu.Unlock()
			m.notify()
		}
		logrus.Debugf("session observation %d ended", gen)
	}()
}

func (m *Manager) notify() {
	m.mu.RLock()
	snapshot := m.state.clone()
	listeners := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}
