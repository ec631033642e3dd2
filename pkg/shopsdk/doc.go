// Package shopsdk holds the wire contract of the GreenBite storefront API:
// request bodies with their validation rules, response bodies, the error
// envelope, and a small HTTP client for calling the API from Go.
package shopsdk
