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
	"os"
	"strings"
)

// envParamGetter substitutes for a direct TR-181/rbus parameter read: the
// real transport stays external to this module, so a standalone binary
// resolves the same parameter names from environment variables a wrapper
// script or init system sets.
type envParamGetter struct{}

func (envParamGetter) GetParam(name string) (string, bool) {
	return os.LookupEnv(paramEnvName(name))
}

var paramEnvReplacer = strings.NewReplacer(".", "_", "-", "_")

func paramEnvName(name string) string {
	return "DCM_PARAM_" + strings.ToUpper(paramEnvReplacer.Replace(name))
}
