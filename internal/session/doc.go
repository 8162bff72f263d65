// package session owns the authenticated-user state: the single source of
// truth for who is logged in and which catalog credentials are attached.
//
// All persistence goes through [Store], a SQLite-backed key-value table with
// one save/load pair per logical record, so the serialized user and the
// derived credential fields can never drift apart. [Manager] layers the
// login/logout lifecycle and a subscribable current-user stream on top.
package session
