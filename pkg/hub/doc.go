// Package hub ties the notification components to the login lifecycle.
//
//	holder := auth.NewHolder()
//	client, _ := api.New(cfg.APIURL, api.WithTokenSource(holder))
//	session, _ := hub.New(client, storage,
//	    hub.WithHolder(holder),
//	    hub.WithSocket(cfg.APIURL, "/ws"),
//	    hub.WithNotifier(osnotify.New(osnotify.NewDesktopBackend("Hub"))),
//	)
//
//	if err := session.Init(ctx, token); err != nil { // on login
//	    return err
//	}
//	defer session.Teardown(ctx) // on logout
//
// Init parses the token, builds the store and manager, starts toasts and the
// bell panel, connects the push socket, merges page 1 of server history and
// starts the reminder scheduler. Only a bad token makes it fail. Teardown
// undoes all of it and clears the persisted notification list.
package hub
