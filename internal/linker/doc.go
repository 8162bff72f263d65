// package linker completes the three-legged handshake that upgrades a
// logged-in local user into one with an attached catalog account: request
// token, external user approval, session creation, account fetch.
package linker
