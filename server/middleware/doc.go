// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP middleware of the admin front end.

Route definitions are centralized in router.DefineRoutes and the middleware
order in router.RegisterMiddleware.
*/
package middleware
