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


// Package chat defines the Google Chat webhook message schema used by
// slogchat. Only the subset of the cardsV2 format emitted by the formatter is
// modelled: a text body plus an optional card holding one section of
// decoratedText widgets.
//
// See https://developers.google.com/workspace/chat/api/reference/rest/v1/cards
// for the full schema.
package chat
