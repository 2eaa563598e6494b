// Copyright 2025 walteh LLC
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

// Package console shows local alerts on the terminal.
package console

import (
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

// 🔔 Alerter prints alerts with a bell prefix. It never fails: a terminal that
// cannot be written to just loses the alert.
type Alerter struct {
	mu      sync.Mutex
	printer *pterm.PrefixPrinter
}

// New returns an Alerter writing to w, or stdout when w is nil.
func New(w io.Writer) *Alerter {
	if w == nil {
		w = os.Stdout
	}
	return &Alerter{
		printer: pterm.Warning.WithPrefix(pterm.Prefix{Text: "🔔", Style: pterm.Warning.Prefix.Style}).WithWriter(w),
	}
}

// SendLocal prints a two-line alert.
func (a *Alerter) SendLocal(title, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.printer.Println(title + "\n" + body)
}
