// Package mocks holds gomock doubles for the session collaborators.
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_mock.go github.com/spec-kit/library-gateway/internal/session IdentityFetcher,CredentialIssuer,CredentialStore
