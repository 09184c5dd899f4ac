// Package conversation holds the local conversation registry, the sync engine
// that reconciles it with the backend, and the snapshot broadcaster.
//
// # Store
//
// Store is the in-memory registry:
//
//	reg := conversation.NewStore()
//	reg.UpsertAndActivate(model.Conversation{ID: "CONV#...", Title: "..."})
//
// Key operations:
//
//   - List(): conversations in insertion order
//   - UpsertAndActivate(c): insert and activate in one step
//   - SetActive(id): switch the active conversation, false if unknown
//   - Remove(id): delete, never selects a replacement
//
// At most one conversation is active at any observation point.
//
// # SyncEngine
//
// SyncEngine maps backend records into model values:
//
//   - LoadConversationList(ctx, email): summaries to inactive conversations,
//     title falls back to "Conversation <short id>"
//   - LoadConversation(ctx, email, id): records to messages, bot sender to
//     assistant, epoch seconds to time, missing time to now, missing id to a
//     display-only "local-..." key, file records to one attachment
//
// A 404 from either call is an empty result, not an error.
//
// # Broadcaster
//
// Broadcaster fans state snapshots out to presentation subscribers without
// blocking the publisher.
package conversation
