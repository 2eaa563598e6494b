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

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/cmd/shelfwatch/commands"
	"github.com/walteh/shelfwatch/cmd/shelfwatch/opts"
	"github.com/walteh/shelfwatch/pkg/item"
)

// execute runs the CLI with args against a scratch config and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	o := &opts.RootOpts{Out: out}
	root := newRootCmd(o)
	root.AddCommand(
		commands.NewCheckCmd(o),
		commands.NewAddCmd(o),
		commands.NewRemoveCmd(o),
		newVersionCmd(),
	)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeWorkspace(t *testing.T, inventory string) string {
	t.Helper()
	dir := t.TempDir()
	inv := filepath.Join(dir, "inventory.yaml")
	if inventory != "" {
		require.NoError(t, os.WriteFile(inv, []byte(inventory), 0o600))
	}
	cfg := fmt.Sprintf("store:\n  kind: file\n  path: %s\nlocal:\n  enabled: false\n", inv)
	path := filepath.Join(dir, "shelfwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestCheck(t *testing.T) {
	today := item.Day(time.Now())
	inventory := fmt.Sprintf(`items:
  - id: milk
    name: Milk
    expiry_date: "%s"
    quantity: 1
    storage_location: fridge
  - id: rice
    name: Rice
    expiry_date: "%s"
    quantity: 1
    storage_location: pantry
`, item.FormatDate(today.AddDate(0, 0, -1)), item.FormatDate(today.AddDate(1, 0, 0)))

	out, err := execute(t, "--config", writeWorkspace(t, inventory), "check")
	require.NoError(t, err)

	assert.Contains(t, out, "fresh as of")
	assert.Contains(t, out, "📦 2 items")
	assert.Contains(t, out, "Milk expired yesterday")
	assert.NotContains(t, out, "Rice expires", "active items are not urgent")
}

func TestCheckFailsWhenStoreIsUnreadable(t *testing.T) {
	out, err := execute(t, "--config", writeWorkspace(t, ""), "check")
	require.Error(t, err)
	assert.True(t, errors.Is(err, commands.ErrStale))
	assert.Contains(t, out, "stale")
}

func TestAddThenRemove(t *testing.T) {
	config := writeWorkspace(t, "items: []\n")
	expiry := item.FormatDate(item.Day(time.Now()).AddDate(0, 0, 30))

	out, err := execute(t, "--config", config, "add", "Butter", "--expires", expiry, "--location", "fridge/door")
	require.NoError(t, err)
	assert.Contains(t, out, "added Butter")

	out, err = execute(t, "--config", config, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "📦 1 items")

	out, err = execute(t, "--config", config, "add", "Cheese")
	require.Error(t, err, "expires is required")
	assert.NotContains(t, out, "added")

	_, err = execute(t, "--config", config, "remove", "nope")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "shelfwatch")
	assert.Contains(t, out, "Platform:")

	info := GetVersionInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
