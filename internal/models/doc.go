// package models defines the data model for the movie catalog client:
// the locally authenticated user with their attached catalog credentials,
// and the movie summary/detail/credits shapes returned by the catalog API.
package models
