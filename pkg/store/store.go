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

// Package store defines the storage collaborator the engine reads items from.
package store

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
)

var (
	// ErrStoreUnavailable wraps every transport or auth failure of a backing store.
	ErrStoreUnavailable = errors.Base("store unavailable")

	// ErrNotFound is returned by mutations on an unknown item id.
	ErrNotFound = errors.Base("item not found")
)

// 📚 Lister returns the full current item set.
type Lister interface {
	ListItems(ctx context.Context) ([]item.Record, error)
}

// 📡 Subscriber invokes fn whenever the backing data changes. The callback
// carries no payload: it is a refresh signal, never a delta. The returned
// function cancels the subscription.
type Subscriber interface {
	OnChange(fn func()) (cancel func())
}

// ✏️ Mutator is implemented by stores that accept item writes.
type Mutator interface {
	CreateItem(ctx context.Context, rec item.Record) (item.Record, error)
	UpdateItem(ctx context.Context, rec item.Record) (item.Record, error)
	DeleteItem(ctx context.Context, id string) error
}

// UnavailableError is a store failure caused by transport or auth. It matches
// ErrStoreUnavailable under errors.Is and unwraps to its cause.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return "store unavailable: " + e.Op + ": " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Unavailable marks err as a store availability failure of op.
func Unavailable(op string, err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return &UnavailableError{Op: op, Err: err}
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context) ([]item.Record, error)

func (f ListerFunc) ListItems(ctx context.Context) ([]item.Record, error) {
	return f(ctx)
}
