// package catalog is the access layer for the third-party movie catalog:
// read-only queries (search, discovery, billboard, detail, credits, genres),
// the authentication endpoints used by the authorization handshake, and the
// favorite-set cache kept authoritative by re-fetching after every mutation.
package catalog
