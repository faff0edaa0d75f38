// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

// Package recommend implements Feedline's recommendation engine.
//
// # Architecture
//
// The engine turns one request into a ranked feed in five steps:
//
//   - Profile lookup: the requesting user must exist; nothing else is fatal
//   - Aspiration inference: best-effort LLM summary of the user's bio
//   - Exclusion filter: drops the user's own and already-seen posts
//   - Strategy ranking: popularity (like counts) or lexical (TF-IDF cosine)
//   - External augmentation: best-effort search results appended at the end
//
// # Design Principles
//
//   - Deterministic: identical store state and signals produce identical
//     output; ties always break on ascending post ID
//   - Stateless: every request re-reads the store, nothing is cached
//   - Degradable: inference and search failures drop the signal and are
//     logged and counted, never surfaced to the caller
//   - Traceable: request IDs flow through logs and response metadata
//
// # Strategy Selection
//
// In auto mode the engine routes users with any interaction or aspiration
// signal to lexical ranking and cold-start users to popularity. The
// strategy can be pinned via Config.Strategy.
//
// # Usage
//
//	eng, err := recommend.NewEngine(recommend.DefaultConfig(), st, logger)
//	if err != nil {
//	    return err
//	}
//	eng.RegisterRanker(rankers.NewPopularity())
//	eng.RegisterRanker(rankers.NewLexical())
//
//	resp, err := eng.Recommend(ctx, recommend.Request{Username: "alice"})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Rankers are stateless; the only
// mutable engine state is the strategy registry, which is guarded by a
// read-write mutex.
package recommend
