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


package slogchat

import (
	"context"
)

type contextKey int

const (
	requestContextKey contextKey = iota
)

// RequestInfo describes the request being served when a record is logged.
// Middleware in slogchathttp, slogchatecho and slogchatgrpc store it on the
// request context; notifying cards show URL as their "Request URL" row.
type RequestInfo struct {
	Method string
	URL    string
	Route  string
}

// ContextWithRequest returns a child context carrying info.
func ContextWithRequest(ctx context.Context, info RequestInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestContextKey, info)
}

// RequestFromContext retrieves the RequestInfo stored by ContextWithRequest.
// The boolean is false outside a request context or when no URL was
// recorded.
func RequestFromContext(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(requestContextKey).(RequestInfo)
	return info, ok && info.URL != ""
}
