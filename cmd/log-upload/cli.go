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

package main

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadengine"
)

// parsedArgs is the result of parsing the upload engine's documented CLI
// surface: nine positional arguments, or the single-word "uploadlogsnow"
// shorthand.
type parsedArgs struct {
	Flags   uploadengine.Flags
	RRDFile string
}

// parseArgs reproduces the legacy script's positional contract. The
// TFTP-server-legacy, UploadProtocol, and UploadHttpLink positions are
// accepted for compatibility but unused: this port resolves the actual
// upload endpoint from TR-181 parameters at context build time, not the
// command line.
func parseArgs(args []string) (parsedArgs, error) {
	if len(args) == 1 && args[0] == "uploadlogsnow" {
		return parsedArgs{Flags: uploadengine.Flags{
			Flag:           true,
			DCMFlag:        true,
			UploadOnReboot: true,
			Trigger:        uploadengine.TriggerOnDemand,
		}}, nil
	}

	if len(args) < 8 || len(args) > 9 {
		return parsedArgs{}, errors.New("usage: log-upload <TFTP-server-legacy> <FLAG> <DCM_FLAG> <UploadOnReboot> <UploadProtocol> <UploadHttpLink> <TriggerType> <RRD_FLAG> [<RRD_UPLOADLOG_FILE>] | uploadlogsnow")
	}

	trigger, err := strconv.Atoi(args[6])
	if err != nil {
		return parsedArgs{}, errors.Wrap(err, "log-upload: TriggerType must be an integer")
	}

	parsed := parsedArgs{Flags: uploadengine.Flags{
		Flag:           argBool(args[1]),
		DCMFlag:        argBool(args[2]),
		UploadOnReboot: argBool(args[3]),
		Trigger:        uploadengine.Trigger(trigger),
		RRDFlag:        argBool(args[7]),
	}}
	if len(args) > 8 {
		parsed.RRDFile = args[8]
	}
	return parsed, nil
}

// argBool treats "1" as true and anything else (including the legacy "-"
// placeholder for an unused TFTP-style argument) as false.
func argBool(s string) bool {
	return s == "1"
}
