// Copyright 2025 Philipp Hossner
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

// Package main provides the viewrender command line.
//
// Settings come from a YAML or TOML configuration file given with --config
// or the VIEWRENDER_CONFIG environment variable. Without a file, defaults
// apply and --root names the template directories. Flags override the file.
//
// Commands:
//
//   - render: renders one view to standard output
//   - check: compiles every template and reports failures
//   - serve: serves views over HTTP until SIGTERM or SIGINT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/KimMachineGun/automemlimit"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: cancel() called explicitly before exit
	}
}
