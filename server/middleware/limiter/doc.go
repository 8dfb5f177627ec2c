// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter rate limits requests per client network.

Clients are grouped into networks by a configurable IPv4 and IPv6 prefix. Each
network gets a token bucket. Addresses on the pass list skip limiting and
addresses on the block list are always refused.
*/
package limiter
