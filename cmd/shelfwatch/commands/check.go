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

package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/cmd/shelfwatch/opts"
	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/snapshot"
	"github.com/walteh/shelfwatch/pkg/summary"
)

// ErrStale is returned by check when the store could not be read.
var ErrStale = errors.Base("inventory is stale")

// NewCheckCmd creates the check command
func NewCheckCmd(o *opts.RootOpts) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Refresh once and print what needs attention",
		Long: `Check runs a single refresh, sends alerts for items that are expiring
soon or expired, and prints a summary with the most urgent items.
It exits non-zero when the store cannot be read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), o, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", summary.DefaultLimit, "number of urgent items to list")

	return cmd
}

func runCheck(ctx context.Context, o *opts.RootOpts, limit int) error {
	rt, err := o.NewRuntime(ctx, nil)
	if err != nil {
		return err
	}

	health := rt.Engine.Refresh(ctx)
	f := summary.DefaultFormatter{}

	fmt.Fprintln(o.Out, f.FormatHealth(health))
	if health.Stale() {
		return errors.WithDetails(ErrStale, "error", health.LastError)
	}

	fmt.Fprintln(o.Out, f.FormatSummary(rt.Engine.Summary()))

	snap := rt.Engine.Current()
	urgent := rt.Engine.Urgent(limit)
	if len(urgent) == 0 {
		rt.Logger.Success("nothing is expiring")
		return nil
	}

	table, err := urgentTable(urgent, snap)
	if err != nil {
		return err
	}
	fmt.Fprint(o.Out, table)
	return nil
}

// urgentTable renders entries as a table, one row per item.
func urgentTable(entries []snapshot.Entry, snap *snapshot.Snapshot) (string, error) {
	f := summary.DefaultFormatter{}
	data := pterm.TableData{{"Item", "Status", "Expires", "Qty", "Location"}}
	for _, e := range entries {
		data = append(data, []string{
			f.FormatEntry(e, snap.Today()),
			e.Status.String(),
			item.FormatDate(e.Item.ExpiryDate),
			strconv.Itoa(e.Item.Quantity),
			e.Item.StorageLocation,
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", errors.Errorf("rendering table: %w", err)
	}
	return out + "\n", nil
}
