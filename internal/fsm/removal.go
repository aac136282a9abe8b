// Copyright 2026 Beacon Works GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fsm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/beaconworks/beacon-plugin-cli/pkg/constants"
)

// RemovalInstance tracks one plugin removal through its ordered stations.
// The remover drives it station by station; the machine exists so that a
// step attempted out of order is an error instead of silent corruption.
type RemovalInstance struct {
	cfg RemovalInstanceConfig

	// mu is a mutex for protecting concurrent access to fields
	mu sync.RWMutex

	// fsm is the finite state machine that manages removal state
	fsm *fsm.FSM

	// Registered "enter_state" callbacks, purely for logging or minor side-effects.
	callbacks map[string]fsm.Callback

	// lastErr is the error that moved the machine into the failed state
	lastErr error

	// logger is the logger for the FSM
	logger *zap.SugaredLogger
}

// RemovalInstanceConfig holds parameters for setting up the removal machine.
type RemovalInstanceConfig struct {
	// ID is the name of the plugin being removed
	ID string
}

// NewRemovalInstance sets up a new FSM with the removal transitions.
func NewRemovalInstance(cfg RemovalInstanceConfig, logger *zap.SugaredLogger) *RemovalInstance {
	instance := &RemovalInstance{
		cfg:       cfg,
		callbacks: make(map[string]fsm.Callback),
		logger:    logger,
	}

	events := []fsm.EventDesc{
		{Name: EventValidate, Src: []string{StateToBeRemoved}, Dst: StateValidated},
		{Name: EventCollect, Src: []string{StateValidated}, Dst: StateCollected},
		{Name: EventMark, Src: []string{StateCollected}, Dst: StateMarked},
		{Name: EventDelete, Src: []string{StateMarked}, Dst: StateDeleted},
		{Name: EventNotify, Src: []string{StateDeleted}, Dst: StateNotified},
		{Name: EventFail, Src: []string{
			StateToBeRemoved,
			StateValidated,
			StateCollected,
			StateMarked,
			StateDeleted,
		}, Dst: StateFailed},
	}

	instance.fsm = fsm.NewFSM(
		StateToBeRemoved,
		fsm.Events(events),
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				// Call registered callback for this state if exists
				if cb, ok := instance.callbacks["enter_"+e.Dst]; ok {
					cb(ctx, e)
				}
			},
		},
	)

	// Register default callbacks that trace progress per station

	instance.AddCallback("enter_"+StateValidated, func(ctx context.Context, e *fsm.Event) {
		instance.logger.Debugf("Entering validated state for removal of %s", instance.cfg.ID)
	})

	instance.AddCallback("enter_"+StateCollected, func(ctx context.Context, e *fsm.Event) {
		instance.logger.Debugf("Entering collected state for removal of %s", instance.cfg.ID)
	})

	instance.AddCallback("enter_"+StateMarked, func(ctx context.Context, e *fsm.Event) {
		instance.logger.Debugf("Entering marked state for removal of %s", instance.cfg.ID)
	})

	instance.AddCallback("enter_"+StateDeleted, func(ctx context.Context, e *fsm.Event) {
		instance.logger.Debugf("Entering deleted state for removal of %s", instance.cfg.ID)
	})

	instance.AddCallback("enter_"+StateNotified, func(ctx context.Context, e *fsm.Event) {
		instance.logger.Debugf("Entering notified state for removal of %s", instance.cfg.ID)
	})

	instance.AddCallback("enter_"+StateFailed, func(ctx context.Context, e *fsm.Event) {
		instance.logger.Debugf("Entering failed state for removal of %s", instance.cfg.ID)
	})

	return instance
}

// AddCallback adds a callback for a given event name
func (s *RemovalInstance) AddCallback(eventName string, callback fsm.Callback) {
	s.callbacks[eventName] = callback
}

// SendEvent sends an event to the FSM and returns whether the event was processed.
//
// Context expiration during a transition leaves the FSM's internal
// transition flag set, and every later event then fails with "previous
// transition did not complete". To avoid that the method refuses to start:
// 1. when the context is already cancelled
// 2. when insufficient time remains before the deadline
func (s *RemovalInstance) SendEvent(ctx context.Context, eventName string, args ...interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < constants.ExpectedMaxTransitionTime {
			return fmt.Errorf("context deadline exceeded")
		}
	}

	return s.fsm.Event(ctx, eventName, args...)
}

// Fail records err and moves the machine into the failed state. The
// recorded error is what the command ultimately reports.
func (s *RemovalInstance) Fail(ctx context.Context, err error) error {
	s.SetError(err)
	return s.SendEvent(ctx, EventFail)
}

// SetError records the error that caused the removal to fail
func (s *RemovalInstance) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// GetError returns the error recorded when the machine failed
func (s *RemovalInstance) GetError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// GetCurrentState returns the current state of the FSM
func (s *RemovalInstance) GetCurrentState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fsm.Current()
}

// SetCurrentState sets the current state of the FSM
// This should only be called in tests
func (s *RemovalInstance) SetCurrentState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fsm.SetState(state)
}

// IsDone returns true once every station including the notice has run
func (s *RemovalInstance) IsDone() bool {
	return s.GetCurrentState() == StateNotified
}

// IsFailed returns true if the removal stopped at a failed station
func (s *RemovalInstance) IsFailed() bool {
	return s.GetCurrentState() == StateFailed
}

func (s *RemovalInstance) GetID() string {
	return s.cfg.ID
}

func (s *RemovalInstance) GetLogger() *zap.SugaredLogger {
	return s.logger
}
