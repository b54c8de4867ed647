// Package cli is the interactive terminal front end.
//
// Every command is a navigation: the REPL turns "poems", "poem 3" or
// "search 明月" into a path, the router runs its guard, and the page the
// navigation ends on is rendered. Pages with forms (login, register,
// add-poem) prompt for their fields, so a guarded command issued while
// signed out lands on the login form and continues to the requested page
// once the credentials are accepted.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or input ends.
package cli
