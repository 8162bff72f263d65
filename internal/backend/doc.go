// package backend is the HTTP client for the app's own account backend:
// login, email checks and the admin user-management endpoints.
package backend
