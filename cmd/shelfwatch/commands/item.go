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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/cmd/shelfwatch/opts"
	"github.com/walteh/shelfwatch/pkg/item"
)

// NewAddCmd creates the add command
func NewAddCmd(o *opts.RootOpts) *cobra.Command {
	var rec item.Record

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an item to the inventory",
		Long: `Add stores a new item and refreshes once so any alert it raises is sent.
Quantity defaults to 1 and location to "unspecified".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec.Name = args[0]

			rt, err := o.NewRuntime(ctx, nil)
			if err != nil {
				return err
			}

			created, err := rt.Engine.AddItem(ctx, rec)
			if err != nil {
				return err
			}
			rt.Engine.Wait()

			rt.Logger.Successf("added %s (%s) expiring %s", created.Name, created.ID, created.ExpiryDate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rec.ExpiryDate, "expires", "e", "", "expiry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&rec.ProductionDate, "produced", "", "production date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&rec.Quantity, "quantity", "q", 1, "quantity")
	cmd.Flags().StringVarP(&rec.StorageLocation, "location", "l", "", "storage location, e.g. fridge/top")
	_ = cmd.MarkFlagRequired("expires")

	return cmd
}

// NewRemoveCmd creates the remove command
func NewRemoveCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove an item from the inventory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := o.NewRuntime(ctx, nil)
			if err != nil {
				return err
			}

			if err := rt.Engine.DeleteItem(ctx, args[0]); err != nil {
				return errors.Errorf("removing %s: %w", args[0], err)
			}
			rt.Engine.Wait()

			rt.Logger.Successf("removed %s", args[0])
			return nil
		},
	}

	return cmd
}
