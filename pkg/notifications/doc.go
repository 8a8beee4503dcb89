// Package notifications holds the client-side notification pipeline: the
// record model, the capped and persisted Store, and the Manager that sits at
// the ingestion point.
//
// # Flow
//
// A decoded server push (or a locally synthesized reminder) is passed to
// Manager.Ingest. The Store inserts it at the head of the list unless a
// record with the same id is already present, evicts from the tail beyond
// its capacity (50 by default), persists the list through a
// localstore.Storage and calls every subscriber with a copy of the list.
// New records are then handed to a Deliverer; a MultiDeliverer combines the
// in-app bus (BroadcastDeliverer) with optional desktop popups so that a
// failing channel never suppresses the others.
//
//	store := notifications.NewStore(ctx, localstore.NewMemoryStore())
//	bus := notifications.NewBroadcastDeliverer(32)
//	manager := notifications.NewManager(store,
//	    notifications.WithDeliverer(bus),
//	    notifications.WithSyncer(apiClient),
//	    notifications.WithHistorySource(apiClient),
//	)
//
//	unsubscribe := store.Subscribe(func(list []notifications.Notification) {
//	    redrawBadge(len(list))
//	})
//	defer unsubscribe()
//
// # Duplicates and read state
//
// Ingesting an id that is already stored is a no-op: no field is updated, so
// a late duplicate push can never turn a read record back to unread.
// Unread counts are always derived from the list.
//
// Read-state changes are applied locally first. The backend call runs in the
// background and its failure is only logged.
package notifications
