package domain

import (
	interfaces "w3session/internal/domain/interfaces"
	types "w3session/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	ShareMetadata    = types.ShareMetadata
	SetRequest       = types.SetRequest
	GetRequest       = types.GetRequest
	StoreEntry       = types.StoreEntry
	SetResponse      = types.SetResponse
	HandOff          = types.HandOff
	SessionResponse  = types.SessionResponse
	UserInfo         = types.UserInfo
	Web3AuthResponse = types.Web3AuthResponse
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyValueStore      = interfaces.KeyValueStore
	Transport          = interfaces.Transport
	SessionStoreClient = interfaces.SessionStoreClient
	RedirectChannel    = interfaces.RedirectChannel
)

// Well-known key store names.
const (
	KeySessionID   = types.KeySessionID
	KeyRedirectURL = types.KeyRedirectURL
	PlatformTag    = types.PlatformTag
)
