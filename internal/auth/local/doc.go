// Package local implements the development credential backend. Accounts
// and the signed-in account live in the local SQLite metadata store under
// the keys "local_users" and "current_user", both JSON documents.
//
// Passwords are stored as bcrypt hashes. The backend performs no email
// verification, and a successful SignUp leaves the new account signed in.
package local
