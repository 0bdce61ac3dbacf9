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


// Package slogchathttp records the request being served on the request
// context so Google Chat notifications raised while handling it carry a
// "Request URL" row and a trace row.
//
//	h, _ := slogchat.NewHandler(webhook, slogchat.WithVariant(slogchat.VariantNotifying))
//	logger := slog.New(h)
//	mux := http.NewServeMux()
//	mux.HandleFunc("/checkout", func(w http.ResponseWriter, r *http.Request) {
//		logger.ErrorContext(r.Context(), "checkout failed")
//	})
//	http.ListenAndServe(":8080", slogchathttp.Middleware()(mux))
package slogchathttp
