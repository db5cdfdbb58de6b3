// Package http serves published pages and the admin JSON API on a chi
// router.
//
// Public routes:
//   - GET /pages/{slug} (add ?preview to skip view counting)
//   - GET /assets/{filename}
//   - GET /metrics when metrics are wired
//
// Admin routes, session required except for login:
//   - POST /admin/login, POST /admin/logout
//   - /admin/api/pages, /admin/api/pages/{id}
//   - /admin/api/pages/{id}/assets, /admin/api/assets/{id}
//   - POST /admin/api/preview
package http
