// Package toast keeps the stack of short-lived in-app notification cards.
//
// A Presenter shows one Toast per Event, newest first, and dismisses it
// after a priority-dependent timeout (TimeoutHigh, TimeoutNormal,
// TimeoutLow). Clicking a toast runs its action and removes it; Dismiss
// removes it without the action and is safe to repeat.
//
// Listen connects the presenter to the notification bus:
//
//	bus := notifications.NewBroadcastDeliverer(32)
//	toasts := toast.New(toast.WithNavigator(router.Navigate))
//	toasts.Listen(ctx, bus.Subscribe(ctx))
//	defer toasts.Close()
package toast
