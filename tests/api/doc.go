// Package api contains tests that run against a real backend server.
//
// These tests require the backend server to be running before execution,
// with OTP_DEV_MODE=true so the suite can sign itself in: dev mode returns
// verification codes in the response instead of sending SMS.
//
// Usage:
//
//	# Start the backend server first
//	OTP_DEV_MODE=true go run cmd/server/main.go
//
//	# Then run the API tests
//	go test -tags=api ./tests/api/... -v
//
// Environment Variables:
//
//	API_BASE_URL - Base URL of the API server (default: http://localhost:8080)
package api
