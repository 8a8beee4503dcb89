// Package osnotify shows optional desktop popups for new notifications.
//
// A Notifier is a notifications.Deliverer. It shows nothing until
// RequestPermission has returned true, and an unsupported platform counts as
// a denial. The decision is stored under localstore.KeyPermissionPrompted so
// the user is asked at most once per device.
//
// Clicking a popup focuses the application and navigates to the
// notification's target. Unclicked popups close after DefaultAutoClose.
// Popups are always combined with in-app delivery through a
// notifications.MultiDeliverer, so a failing desktop service never hides a
// notification.
package osnotify
