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


// Package slogchat delivers [log/slog] records to a Google Chat space. Each
// record is rendered as a cardsV2 message and posted synchronously to an
// incoming webhook, one POST per record.
//
// The primary entry point is [NewHandler], which returns an [slog.Handler]
// configured with sensible defaults:
//   - A minimal message "*app : LEVEL:* message" with a collapsible card
//     holding the record's attributes.
//   - The extended [Level] ladder (`DEBUG` through `EMERGENCY`) with a color
//     per level.
//   - Error attributes rendered as an inline exception block with a stack
//     trace relative to a configurable base path.
//   - Application name and environment detected from the Google Cloud
//     runtime when not configured.
//
// The notifying variant ([VariantNotifying]) adds user mentions per level,
// a card header, environment, level, time, request URL and trace rows, and
// rows supplied by a [CustomRowsFunc].
//
// Records can continue to another handler after delivery ([WithNext]), so a
// chat handler typically sits in front of the application's regular log
// output with a higher threshold.
//
// # Subpackages
//
//   - [github.com/pjscruggs/slogchat/slogchathttp] offers net/http
//     middleware that records the request URL for the card.
//   - [github.com/pjscruggs/slogchat/slogchatecho] does the same for Echo.
//   - [github.com/pjscruggs/slogchat/slogchatgrpc] provides server
//     interceptors that record the RPC method.
//
// # Quick Start
//
//	handler, err := slogchat.NewHandler(os.Getenv("CHAT_WEBHOOK"),
//		slogchat.WithLevel(slog.LevelError),
//		slogchat.WithNext(slog.NewJSONHandler(os.Stdout, nil)),
//	)
//	if err != nil {
//	    log.Fatalf("create slogchat handler: %v", err)
//	}
//	defer handler.Close()
//
//	logger := slog.New(handler)
//	logger.Error("DB down", slog.Any("error", err))
//
// # Configuration
//
// Functional options such as [WithLevel], [WithVariant], [WithMentions] and
// [WithExcludeFields] adjust behaviour programmatically. The same settings
// are read from SLOGCHAT_* environment variables (for example
// `SLOGCHAT_WEBHOOK_URL`, `SLOGCHAT_LEVEL` or
// `SLOGCHAT_MENTIONS=error=all,5;default=7`) so the same binary can run
// locally and in production without code changes.
package slogchat
