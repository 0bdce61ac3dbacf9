// Copyright 2025 Patrick J. Scruggs
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


package slogchat_test

import (
	"context"
	"testing"

	"github.com/pjscruggs/slogchat"
)

// TestRequestFromContextRoundTrip verifies request info survives the context
// round trip.
func TestRequestFromContextRoundTrip(t *testing.T) {
	t.Parallel()

	if _, ok := slogchat.RequestFromContext(context.Background()); ok {
		t.Fatalf("RequestFromContext(Background) reported a request")
	}

	want := slogchat.RequestInfo{Method: "GET", URL: "https://example.com/orders?id=1", Route: "/orders"}
	ctx := slogchat.ContextWithRequest(context.Background(), want)
	got, ok := slogchat.RequestFromContext(ctx)
	if !ok {
		t.Fatalf("RequestFromContext() ok = false, want true")
	}
	if got != want {
		t.Fatalf("RequestFromContext() = %+v, want %+v", got, want)
	}
}

// TestRequestFromContextRequiresURL ensures an info without URL is ignored.
func TestRequestFromContextRequiresURL(t *testing.T) {
	t.Parallel()

	ctx := slogchat.ContextWithRequest(context.Background(), slogchat.RequestInfo{Method: "POST"})
	if _, ok := slogchat.RequestFromContext(ctx); ok {
		t.Fatalf("RequestFromContext() ok = true for info without URL")
	}
	//nolint:staticcheck // nil context is part of the contract
	if _, ok := slogchat.RequestFromContext(nil); ok {
		t.Fatalf("RequestFromContext(nil) ok = true")
	}
}
