// Package bell holds the state behind the notification bell: the unread
// badge and the paginated history dropdown.
//
// A Panel reads the badge from the notification store, so it always equals
// the number of unread records. Opening the panel the first time fetches
// page 1 of server history and merges it into the store; LoadMore appends
// older pages from an LRU page cache. Clicking an item marks it read and
// navigates to its target.
package bell
