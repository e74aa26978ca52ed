// Copyright 2025 RDK Management
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uploadengine drives one end-to-end log-upload session: strategy
// selection, archive preparation, the two-path upload cycle with retry
// budgets and fallback, and finalization (block markers, cleanup, events).
package uploadengine

import "github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"

// Strategy is the outcome of the decision tree in SelectStrategy.
type Strategy int

const (
	StrategyRRD Strategy = iota
	StrategyPrivacyAbort
	StrategyOnDemand
	StrategyNonDCM
	StrategyReboot
	StrategyDCM
)

func (s Strategy) String() string {
	switch s {
	case StrategyRRD:
		return "RRD"
	case StrategyPrivacyAbort:
		return "PRIVACY_ABORT"
	case StrategyOnDemand:
		return "ONDEMAND"
	case StrategyNonDCM:
		return "NON_DCM"
	case StrategyReboot:
		return "REBOOT"
	case StrategyDCM:
		return "DCM"
	default:
		return "UNKNOWN"
	}
}

// Trigger is the canonical cause of an upload session, fixed once and used
// consistently wherever a trigger value crosses a boundary (CLI argument,
// struct field, log output).
type Trigger int

const (
	TriggerCron Trigger = iota
	TriggerReboot
	TriggerManual
	_ // 3 and 4 are not assigned by the source
	_
	TriggerOnDemand
)

func (t Trigger) String() string {
	switch t {
	case TriggerCron:
		return "dcm"
	case TriggerReboot:
		return "reboot"
	case TriggerManual:
		return "manual"
	case TriggerOnDemand:
		return "ondemand"
	default:
		return "unknown"
	}
}

// Flags mirrors the legacy positional arguments that drive strategy
// selection, kept as plain booleans/ints rather than re-deriving them from
// a CLI-specific type so both cmd/log-upload and cmd/usb-log-upload can
// build one the same way.
type Flags struct {
	RRDFlag        bool
	Flag           bool
	DCMFlag        bool
	UploadOnReboot bool
	Trigger        Trigger
}

// SelectStrategy evaluates the decision tree in order; the first match
// wins.
func SelectStrategy(ctx *uploadctx.Context, flags Flags) Strategy {
	if flags.RRDFlag {
		return StrategyRRD
	}
	if isPrivacyMode(ctx) {
		return StrategyPrivacyAbort
	}
	if flags.Trigger == TriggerOnDemand {
		return StrategyOnDemand
	}
	if !flags.DCMFlag {
		return StrategyNonDCM
	}
	if flags.UploadOnReboot && flags.Flag {
		return StrategyReboot
	}
	return StrategyDCM
}

// isPrivacyMode applies the privacy-abort check only to mediaclient
// devices, matching the source's device-type gate.
func isPrivacyMode(ctx *uploadctx.Context) bool {
	if ctx == nil {
		return false
	}
	if ctx.Identity.DeviceType != "mediaclient" {
		return false
	}
	return ctx.PrivacyMode == uploadctx.PrivacyDoNotShare
}
